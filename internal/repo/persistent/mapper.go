package persistent

import (
	"codemarket/internal/entity"
	"codemarket/internal/model"
)

func ToPointAccountEntity(m *model.PointAccountModel) *entity.PointAccount {
	if m == nil {
		return nil
	}

	return &entity.PointAccount{
		ID:              m.ID,
		UserID:          m.UserID,
		TotalPoints:     m.TotalPoints,
		AvailablePoints: m.AvailablePoints,
		FrozenPoints:    m.FrozenPoints,
		TotalEarned:     m.TotalEarned,
		TotalSpent:      m.TotalSpent,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func ToPointAccountModel(e *entity.PointAccount) *model.PointAccountModel {
	if e == nil {
		return nil
	}

	return &model.PointAccountModel{
		ID:              e.ID,
		UserID:          e.UserID,
		TotalPoints:     e.TotalPoints,
		AvailablePoints: e.AvailablePoints,
		FrozenPoints:    e.FrozenPoints,
		TotalEarned:     e.TotalEarned,
		TotalSpent:      e.TotalSpent,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func ToPointTransactionEntity(m *model.PointTransactionModel) *entity.PointTransaction {
	if m == nil {
		return nil
	}

	return &entity.PointTransaction{
		ID:            m.ID,
		UserID:        m.UserID,
		Type:          entity.TransactionType(m.Type),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Status:        entity.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
	}
}

func ToPointTransactionModel(e *entity.PointTransaction) *model.PointTransactionModel {
	if e == nil {
		return nil
	}

	return &model.PointTransactionModel{
		ID:            e.ID,
		UserID:        e.UserID,
		Type:          string(e.Type),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Description:   e.Description,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		Status:        string(e.Status),
		CreatedAt:     e.CreatedAt,
	}
}

func ToOrderEntity(m *model.OrderModel) *entity.Order {
	if m == nil {
		return nil
	}

	return &entity.Order{
		ID:               m.ID,
		OrderNo:          m.OrderNo,
		BuyerID:          m.BuyerID,
		SellerID:         m.SellerID,
		ProjectID:        m.ProjectID,
		Amount:           m.Amount,
		Status:           entity.OrderStatus(m.Status),
		PaymentMethod:    m.PaymentMethod,
		PaymentTime:      m.PaymentTime,
		CompletionTime:   m.CompletionTime,
		CancellationTime: m.CancellationTime,
		RefundTime:       m.RefundTime,
		RefundAmount:     m.RefundAmount,
		Remark:           m.Remark,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToOrderModel(e *entity.Order) *model.OrderModel {
	if e == nil {
		return nil
	}

	return &model.OrderModel{
		ID:               e.ID,
		OrderNo:          e.OrderNo,
		BuyerID:          e.BuyerID,
		SellerID:         e.SellerID,
		ProjectID:        e.ProjectID,
		Amount:           e.Amount,
		Status:           string(e.Status),
		PaymentMethod:    e.PaymentMethod,
		PaymentTime:      e.PaymentTime,
		CompletionTime:   e.CompletionTime,
		CancellationTime: e.CancellationTime,
		RefundTime:       e.RefundTime,
		RefundAmount:     e.RefundAmount,
		Remark:           e.Remark,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

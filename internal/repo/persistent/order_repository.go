package persistent

import (
	"errors"
	"time"

	"codemarket/internal/entity"
	"codemarket/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *entity.Order) error
	GetByOrderNo(orderNo string) (*entity.Order, error)
	// GetByOrderNoForUpdate locks the order row so concurrent transitions on the
	// same order serialize. Must only be called on a tx-bound repository.
	GetByOrderNoForUpdate(orderNo string) (*entity.Order, error)
	Save(order *entity.Order) error
	ExistsByOrderNo(orderNo string) (bool, error)

	// HasActiveOrder reports whether the buyer already holds a non-terminal or
	// completed order for the project (duplicate-purchase guard).
	HasActiveOrder(buyerID, projectID uint64) (bool, error)
	HasCompletedOrder(buyerID, projectID uint64) (bool, error)

	ListByBuyer(buyerID uint64, limit, offset int) ([]*entity.Order, error)
	ListBySeller(sellerID uint64, limit, offset int) ([]*entity.Order, error)

	FindPendingCreatedBefore(cutoff time.Time) ([]*entity.Order, error)
	FindPaidBefore(cutoff time.Time) ([]*entity.Order, error)

	CountByBuyer(buyerID uint64) (int64, error)
	CountBySeller(sellerID uint64) (int64, error)
	SumAmountByBuyer(buyerID uint64) (decimal.Decimal, error)
	SumAmountBySeller(sellerID uint64) (decimal.Decimal, error)
	CountByProject(projectID uint64) (int64, error)
	SumAmountByProject(projectID uint64) (decimal.Decimal, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) Create(order *entity.Order) error {
	orderModel := ToOrderModel(order)
	if err := r.db.Create(orderModel).Error; err != nil {
		return err
	}
	order.ID = orderModel.ID
	order.CreatedAt = orderModel.CreatedAt
	order.UpdatedAt = orderModel.UpdatedAt
	return nil
}

func (r *orderRepository) GetByOrderNo(orderNo string) (*entity.Order, error) {
	var orderModel model.OrderModel
	if err := r.db.Where("order_no = ?", orderNo).First(&orderModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrOrderNotFound
		}
		return nil, err
	}
	return ToOrderEntity(&orderModel), nil
}

func (r *orderRepository) GetByOrderNoForUpdate(orderNo string) (*entity.Order, error) {
	var orderModel model.OrderModel
	if err := forUpdate(r.db).Where("order_no = ?", orderNo).First(&orderModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrOrderNotFound
		}
		return nil, err
	}
	return ToOrderEntity(&orderModel), nil
}

func (r *orderRepository) Save(order *entity.Order) error {
	return r.db.Save(ToOrderModel(order)).Error
}

func (r *orderRepository) ExistsByOrderNo(orderNo string) (bool, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).Where("order_no = ?", orderNo).Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) HasActiveOrder(buyerID, projectID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).
		Where("buyer_id = ? AND project_id = ? AND status IN ?",
			buyerID, projectID,
			[]string{
				string(entity.OrderStatusPendingPayment),
				string(entity.OrderStatusPaid),
				string(entity.OrderStatusCompleted),
			}).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) HasCompletedOrder(buyerID, projectID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).
		Where("buyer_id = ? AND project_id = ? AND status = ?",
			buyerID, projectID, string(entity.OrderStatusCompleted)).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepository) ListByBuyer(buyerID uint64, limit, offset int) ([]*entity.Order, error) {
	return r.list(r.db.Where("buyer_id = ?", buyerID), limit, offset)
}

func (r *orderRepository) ListBySeller(sellerID uint64, limit, offset int) ([]*entity.Order, error) {
	return r.list(r.db.Where("seller_id = ?", sellerID), limit, offset)
}

func (r *orderRepository) list(query *gorm.DB, limit, offset int) ([]*entity.Order, error) {
	var orderModels []model.OrderModel
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]*entity.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = ToOrderEntity(&orderModels[i])
	}
	return orders, nil
}

func (r *orderRepository) FindPendingCreatedBefore(cutoff time.Time) ([]*entity.Order, error) {
	var orderModels []model.OrderModel
	err := r.db.
		Where("status = ? AND created_at < ?", string(entity.OrderStatusPendingPayment), cutoff).
		Find(&orderModels).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*entity.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = ToOrderEntity(&orderModels[i])
	}
	return orders, nil
}

func (r *orderRepository) FindPaidBefore(cutoff time.Time) ([]*entity.Order, error) {
	var orderModels []model.OrderModel
	err := r.db.
		Where("status = ? AND payment_time < ?", string(entity.OrderStatusPaid), cutoff).
		Find(&orderModels).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*entity.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = ToOrderEntity(&orderModels[i])
	}
	return orders, nil
}

func (r *orderRepository) CountByBuyer(buyerID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).
		Where("buyer_id = ? AND status = ?", buyerID, string(entity.OrderStatusCompleted)).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) CountBySeller(sellerID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).
		Where("seller_id = ? AND status = ?", sellerID, string(entity.OrderStatusCompleted)).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) SumAmountByBuyer(buyerID uint64) (decimal.Decimal, error) {
	return r.sumAmount(r.db.Where("buyer_id = ? AND status = ?", buyerID, string(entity.OrderStatusCompleted)))
}

func (r *orderRepository) SumAmountBySeller(sellerID uint64) (decimal.Decimal, error) {
	return r.sumAmount(r.db.Where("seller_id = ? AND status = ?", sellerID, string(entity.OrderStatusCompleted)))
}

func (r *orderRepository) CountByProject(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.OrderModel{}).
		Where("project_id = ? AND status = ?", projectID, string(entity.OrderStatusCompleted)).
		Count(&count).Error
	return count, err
}

func (r *orderRepository) SumAmountByProject(projectID uint64) (decimal.Decimal, error) {
	return r.sumAmount(r.db.Where("project_id = ? AND status = ?", projectID, string(entity.OrderStatusCompleted)))
}

func (r *orderRepository) sumAmount(query *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := query.Model(&model.OrderModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

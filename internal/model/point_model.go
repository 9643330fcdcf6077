package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PointAccountModel struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint64          `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalPoints     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_points"`
	AvailablePoints decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"available_points"`
	FrozenPoints    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"frozen_points"`
	TotalEarned     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_earned"`
	TotalSpent      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_spent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (PointAccountModel) TableName() string {
	return "point_accounts"
}

type PointTransactionModel struct {
	ID            string          `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uint64          `gorm:"not null;index" json:"user_id"`
	Type          string          `gorm:"type:varchar(20);not null;index" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Description   string          `gorm:"type:varchar(255)" json:"description"`
	ReferenceType string          `gorm:"type:varchar(50);index:idx_reference" json:"reference_type"`
	ReferenceID   string          `gorm:"type:varchar(64);index:idx_reference" json:"reference_id"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (PointTransactionModel) TableName() string {
	return "point_transactions"
}

func (t *PointTransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

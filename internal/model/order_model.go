package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo          string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`
	BuyerID          uint64          `gorm:"not null;index" json:"buyer_id"`
	SellerID         uint64          `gorm:"not null;index" json:"seller_id"`
	ProjectID        uint64          `gorm:"not null;index" json:"project_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status           string          `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod    string          `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentTime      *time.Time      `json:"payment_time"`
	CompletionTime   *time.Time      `json:"completion_time"`
	CancellationTime *time.Time      `json:"cancellation_time"`
	RefundTime       *time.Time      `json:"refund_time"`
	RefundAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"refund_amount"`
	Remark           string          `gorm:"type:varchar(500)" json:"remark"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (OrderModel) TableName() string {
	return "orders"
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRefunded
}

const PaymentMethodPoints = "POINTS"

// Order represents the purchase of a project by a buyer from a seller. The
// price is copied from the catalog at creation time and never re-read.
//
// Transitions: pending_payment -> {paid, cancelled};
// paid -> {completed, cancelled, refunded}; completed -> refunded.
type Order struct {
	ID               uint64          `json:"id"`
	OrderNo          string          `json:"order_no"`
	BuyerID          uint64          `json:"buyer_id"`
	SellerID         uint64          `json:"seller_id"`
	ProjectID        uint64          `json:"project_id"`
	Amount           decimal.Decimal `json:"amount"`
	Status           OrderStatus     `json:"status"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	PaymentTime      *time.Time      `json:"payment_time,omitempty"`
	CompletionTime   *time.Time      `json:"completion_time,omitempty"`
	CancellationTime *time.Time      `json:"cancellation_time,omitempty"`
	RefundTime       *time.Time      `json:"refund_time,omitempty"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	Remark           string          `json:"remark,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func NewOrder(orderNo string, buyerID, sellerID, projectID uint64, amount decimal.Decimal, remark string) *Order {
	return &Order{
		OrderNo:      orderNo,
		BuyerID:      buyerID,
		SellerID:     sellerID,
		ProjectID:    projectID,
		Amount:       amount,
		Status:       OrderStatusPendingPayment,
		RefundAmount: decimal.Zero,
		Remark:       remark,
	}
}

func (o *Order) CanPay() bool {
	return o.Status == OrderStatusPendingPayment
}

func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPendingPayment || o.Status == OrderStatusPaid
}

func (o *Order) CanComplete() bool {
	return o.Status == OrderStatusPaid
}

func (o *Order) CanRefund() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusCompleted
}

// IsPaidFor reports whether the buyer's points are held or settled, i.e. a
// cancel or refund has something to give back.
func (o *Order) IsPaidFor() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusCompleted
}

// InvolvedUser reports whether userID is the buyer or the seller.
func (o *Order) InvolvedUser(userID uint64) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

func (o *Order) MarkAsPaid(paymentMethod string) error {
	if !o.CanPay() {
		return ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusPaid
	o.PaymentMethod = paymentMethod
	o.PaymentTime = &now
	return nil
}

func (o *Order) MarkAsCompleted() error {
	if !o.CanComplete() {
		return ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusCompleted
	o.CompletionTime = &now
	return nil
}

func (o *Order) MarkAsCancelled(reason string) error {
	if !o.CanCancel() {
		return ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancellationTime = &now
	if reason != "" {
		o.Remark = reason
	}
	return nil
}

func (o *Order) MarkAsRefunded(refundAmount decimal.Decimal) error {
	if !o.CanRefund() {
		return ErrInvalidState
	}
	now := time.Now()
	o.Status = OrderStatusRefunded
	o.RefundTime = &now
	o.RefundAmount = refundAmount
	return nil
}

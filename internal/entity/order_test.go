package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestOrder() *Order {
	return NewOrder("20260101120000123456", 1, 2, 101, dec("120.00"), "")
}

func TestNewOrder(t *testing.T) {
	order := newTestOrder()

	assert.Equal(t, OrderStatusPendingPayment, order.Status)
	assert.Equal(t, uint64(1), order.BuyerID)
	assert.Equal(t, uint64(2), order.SellerID)
	assert.True(t, order.RefundAmount.IsZero())
	assert.Nil(t, order.PaymentTime)
}

func TestOrderLifecycle_Complete(t *testing.T) {
	order := newTestOrder()

	assert.NoError(t, order.MarkAsPaid(PaymentMethodPoints))
	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.Equal(t, PaymentMethodPoints, order.PaymentMethod)
	assert.NotNil(t, order.PaymentTime)

	assert.NoError(t, order.MarkAsCompleted())
	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.NotNil(t, order.CompletionTime)
	assert.True(t, order.Status.IsTerminal())
}

func TestOrderLifecycle_CancelPending(t *testing.T) {
	order := newTestOrder()

	assert.NoError(t, order.MarkAsCancelled("changed my mind"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, "changed my mind", order.Remark)
	assert.NotNil(t, order.CancellationTime)
}

func TestOrderLifecycle_RefundAfterCompleted(t *testing.T) {
	order := newTestOrder()
	order.MarkAsPaid(PaymentMethodPoints)
	order.MarkAsCompleted()

	assert.NoError(t, order.MarkAsRefunded(order.Amount))
	assert.Equal(t, OrderStatusRefunded, order.Status)
	assert.True(t, order.RefundAmount.Equal(order.Amount))
	assert.NotNil(t, order.RefundTime)
}

func TestOrder_InvalidTransitions(t *testing.T) {
	order := newTestOrder()

	// pending orders cannot complete or refund
	assert.Equal(t, ErrInvalidState, order.MarkAsCompleted())
	assert.Equal(t, ErrInvalidState, order.MarkAsRefunded(order.Amount))

	order.MarkAsPaid(PaymentMethodPoints)

	// double pay
	assert.Equal(t, ErrInvalidState, order.MarkAsPaid(PaymentMethodPoints))

	order.MarkAsCompleted()

	// terminal states reject everything but refund-after-completed
	assert.Equal(t, ErrInvalidState, order.MarkAsPaid(PaymentMethodPoints))
	assert.Equal(t, ErrInvalidState, order.MarkAsCancelled(""))
	assert.Equal(t, ErrInvalidState, order.MarkAsCompleted())

	order.MarkAsRefunded(order.Amount)
	assert.Equal(t, ErrInvalidState, order.MarkAsRefunded(order.Amount))
}

func TestOrder_FailedTransitionDoesNotMutate(t *testing.T) {
	order := newTestOrder()
	order.MarkAsPaid(PaymentMethodPoints)
	paidAt := order.PaymentTime

	err := order.MarkAsPaid(PaymentMethodPoints)
	assert.Equal(t, ErrInvalidState, err)
	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.Equal(t, paidAt, order.PaymentTime)
}

func TestOrder_Guards(t *testing.T) {
	order := newTestOrder()
	assert.True(t, order.CanPay())
	assert.True(t, order.CanCancel())
	assert.False(t, order.CanComplete())
	assert.False(t, order.CanRefund())
	assert.False(t, order.IsPaidFor())

	order.MarkAsPaid(PaymentMethodPoints)
	assert.False(t, order.CanPay())
	assert.True(t, order.CanCancel())
	assert.True(t, order.CanComplete())
	assert.True(t, order.CanRefund())
	assert.True(t, order.IsPaidFor())

	order.MarkAsCompleted()
	assert.False(t, order.CanCancel())
	assert.True(t, order.CanRefund())
}

func TestOrder_InvolvedUser(t *testing.T) {
	order := newTestOrder()

	assert.True(t, order.InvolvedUser(1))
	assert.True(t, order.InvolvedUser(2))
	assert.False(t, order.InvolvedUser(3))
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeRecharge TransactionType = "recharge"
	TransactionTypeConsume  TransactionType = "consume"
	TransactionTypeReward   TransactionType = "reward"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

// IsIncome reports whether the type credits the tracked bucket.
func (t TransactionType) IsIncome() bool {
	return t == TransactionTypeRecharge || t == TransactionTypeReward || t == TransactionTypeRefund
}

// IsExpense reports whether the type debits the tracked bucket.
func (t TransactionType) IsExpense() bool {
	return t == TransactionTypeConsume || t == TransactionTypeWithdraw
}

type TransactionStatus string

const (
	TransactionStatusFailed     TransactionStatus = "failed"
	TransactionStatusSuccess    TransactionStatus = "success"
	TransactionStatusProcessing TransactionStatus = "processing"
)

// Reference types linking a transaction to the business event that caused it.
const (
	ReferenceTypeOrder    = "ORDER"
	ReferenceTypeProject  = "PROJECT"
	ReferenceTypeTransfer = "TRANSFER"
	ReferenceTypeManual   = "MANUAL"
	ReferenceTypeRegister = "REGISTER"
)

// PointTransaction is the append-only audit record for a single account
// mutation. It is written in the same database transaction as the mutation and
// never updated afterwards.
type PointTransaction struct {
	ID            string            `json:"id"`
	UserID        uint64            `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceBefore decimal.Decimal   `json:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	Description   string            `json:"description"`
	ReferenceType string            `json:"reference_type,omitempty"`
	ReferenceID   string            `json:"reference_id,omitempty"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// IsConsistent verifies the before/after snapshot matches the amount and the
// transaction direction.
func (t *PointTransaction) IsConsistent() bool {
	if t.Type.IsIncome() {
		return t.BalanceAfter.Sub(t.BalanceBefore).Equal(t.Amount)
	}
	if t.Type.IsExpense() {
		return t.BalanceBefore.Sub(t.BalanceAfter).Equal(t.Amount)
	}
	return false
}

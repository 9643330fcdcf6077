package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestNewPointAccount(t *testing.T) {
	account := NewPointAccount(42)

	assert.Equal(t, uint64(42), account.UserID)
	assert.True(t, account.TotalPoints.IsZero())
	assert.True(t, account.AvailablePoints.IsZero())
	assert.True(t, account.FrozenPoints.IsZero())
	assert.True(t, account.IsConsistent())
}

func TestAddPoints(t *testing.T) {
	account := NewPointAccount(1)

	err := account.AddPoints(dec("100.50"))
	assert.NoError(t, err)
	assert.True(t, account.TotalPoints.Equal(dec("100.50")))
	assert.True(t, account.AvailablePoints.Equal(dec("100.50")))
	assert.True(t, account.TotalEarned.Equal(dec("100.50")))
	assert.True(t, account.IsConsistent())
}

func TestAddPoints_InvalidAmount(t *testing.T) {
	account := NewPointAccount(1)

	assert.Equal(t, ErrInvalidAmount, account.AddPoints(decimal.Zero))
	assert.Equal(t, ErrInvalidAmount, account.AddPoints(dec("-5")))
	assert.True(t, account.TotalPoints.IsZero())
}

func TestDeductPoints(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))

	err := account.DeductPoints(dec("30"))
	assert.NoError(t, err)
	assert.True(t, account.TotalPoints.Equal(dec("70")))
	assert.True(t, account.AvailablePoints.Equal(dec("70")))
	assert.True(t, account.TotalSpent.Equal(dec("30")))
	assert.True(t, account.IsConsistent())
}

func TestDeductPoints_Insufficient(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("10"))

	err := account.DeductPoints(dec("10.01"))
	assert.Equal(t, ErrInsufficientPoints, err)
	assert.True(t, account.AvailablePoints.Equal(dec("10")))
}

func TestFreezeUnfreeze(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))

	err := account.FreezePoints(dec("40"))
	assert.NoError(t, err)
	assert.True(t, account.TotalPoints.Equal(dec("100")))
	assert.True(t, account.AvailablePoints.Equal(dec("60")))
	assert.True(t, account.FrozenPoints.Equal(dec("40")))
	assert.True(t, account.IsConsistent())

	err = account.UnfreezePoints(dec("40"))
	assert.NoError(t, err)
	assert.True(t, account.AvailablePoints.Equal(dec("100")))
	assert.True(t, account.FrozenPoints.IsZero())
	assert.True(t, account.IsConsistent())
}

func TestFreezePoints_Insufficient(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("50"))
	account.FreezePoints(dec("50"))

	err := account.FreezePoints(dec("1"))
	assert.Equal(t, ErrInsufficientPoints, err)
}

func TestUnfreezePoints_InsufficientFrozen(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))
	account.FreezePoints(dec("20"))

	err := account.UnfreezePoints(dec("20.01"))
	assert.Equal(t, ErrInsufficientFrozenPoints, err)
	assert.True(t, account.FrozenPoints.Equal(dec("20")))
}

func TestDeductFrozenPoints(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))
	account.FreezePoints(dec("40"))

	err := account.DeductFrozenPoints(dec("40"))
	assert.NoError(t, err)
	assert.True(t, account.TotalPoints.Equal(dec("60")))
	assert.True(t, account.AvailablePoints.Equal(dec("60")))
	assert.True(t, account.FrozenPoints.IsZero())
	assert.True(t, account.TotalSpent.Equal(dec("40")))
	assert.True(t, account.IsConsistent())
}

func TestDeductFrozenPoints_InsufficientFrozen(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))

	err := account.DeductFrozenPoints(dec("1"))
	assert.Equal(t, ErrInsufficientFrozenPoints, err)
	assert.True(t, account.TotalPoints.Equal(dec("100")))
}

func TestUsageRate(t *testing.T) {
	account := NewPointAccount(1)
	assert.True(t, account.UsageRate().IsZero())

	account.AddPoints(dec("200"))
	account.DeductPoints(dec("50"))

	assert.True(t, account.UsageRate().Equal(dec("0.25")))
}

func TestIsConsistent_Violation(t *testing.T) {
	account := NewPointAccount(1)
	account.AddPoints(dec("100"))

	account.TotalPoints = dec("99")
	assert.False(t, account.IsConsistent())

	account.TotalPoints = dec("100")
	account.AvailablePoints = dec("-1")
	assert.False(t, account.IsConsistent())
}

func TestTransactionIsConsistent(t *testing.T) {
	income := &PointTransaction{
		Type:          TransactionTypeRecharge,
		Amount:        dec("100"),
		BalanceBefore: dec("50"),
		BalanceAfter:  dec("150"),
	}
	assert.True(t, income.IsConsistent())

	expense := &PointTransaction{
		Type:          TransactionTypeConsume,
		Amount:        dec("30"),
		BalanceBefore: dec("150"),
		BalanceAfter:  dec("120"),
	}
	assert.True(t, expense.IsConsistent())

	broken := &PointTransaction{
		Type:          TransactionTypeConsume,
		Amount:        dec("30"),
		BalanceBefore: dec("150"),
		BalanceAfter:  dec("130"),
	}
	assert.False(t, broken.IsConsistent())
}

func TestTransactionTypeDirection(t *testing.T) {
	assert.True(t, TransactionTypeRecharge.IsIncome())
	assert.True(t, TransactionTypeReward.IsIncome())
	assert.True(t, TransactionTypeRefund.IsIncome())
	assert.True(t, TransactionTypeConsume.IsExpense())
	assert.True(t, TransactionTypeWithdraw.IsExpense())
	assert.False(t, TransactionTypeRecharge.IsExpense())
	assert.False(t, TransactionTypeConsume.IsIncome())
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointAccount tracks a user's points split into buckets. The invariant
// TotalPoints == AvailablePoints + FrozenPoints holds after every mutation;
// TotalEarned and TotalSpent are lifetime counters and never decrease.
type PointAccount struct {
	ID              uint64          `json:"id"`
	UserID          uint64          `json:"user_id"`
	TotalPoints     decimal.Decimal `json:"total_points"`
	AvailablePoints decimal.Decimal `json:"available_points"`
	FrozenPoints    decimal.Decimal `json:"frozen_points"`
	TotalEarned     decimal.Decimal `json:"total_earned"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewPointAccount(userID uint64) *PointAccount {
	return &PointAccount{
		UserID:          userID,
		TotalPoints:     decimal.Zero,
		AvailablePoints: decimal.Zero,
		FrozenPoints:    decimal.Zero,
		TotalEarned:     decimal.Zero,
		TotalSpent:      decimal.Zero,
	}
}

func (a *PointAccount) HasEnoughPoints(amount decimal.Decimal) bool {
	return a.AvailablePoints.GreaterThanOrEqual(amount)
}

// AddPoints credits the available bucket.
func (a *PointAccount) AddPoints(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	a.TotalPoints = a.TotalPoints.Add(amount)
	a.AvailablePoints = a.AvailablePoints.Add(amount)
	a.TotalEarned = a.TotalEarned.Add(amount)
	return nil
}

// DeductPoints spends from the available bucket. Total shrinks with it so the
// bucket invariant keeps holding.
func (a *PointAccount) DeductPoints(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !a.HasEnoughPoints(amount) {
		return ErrInsufficientPoints
	}

	a.TotalPoints = a.TotalPoints.Sub(amount)
	a.AvailablePoints = a.AvailablePoints.Sub(amount)
	a.TotalSpent = a.TotalSpent.Add(amount)
	return nil
}

// FreezePoints moves points from available to frozen, reserving them for a
// pending order. Total is unchanged.
func (a *PointAccount) FreezePoints(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !a.HasEnoughPoints(amount) {
		return ErrInsufficientPoints
	}

	a.AvailablePoints = a.AvailablePoints.Sub(amount)
	a.FrozenPoints = a.FrozenPoints.Add(amount)
	return nil
}

// UnfreezePoints returns a hold to the available bucket.
func (a *PointAccount) UnfreezePoints(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.FrozenPoints.LessThan(amount) {
		return ErrInsufficientFrozenPoints
	}

	a.FrozenPoints = a.FrozenPoints.Sub(amount)
	a.AvailablePoints = a.AvailablePoints.Add(amount)
	return nil
}

// DeductFrozenPoints confirms a hold as spent. The order settlement path uses
// this instead of DeductPoints so a cancel can always return the hold intact.
func (a *PointAccount) DeductFrozenPoints(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if a.FrozenPoints.LessThan(amount) {
		return ErrInsufficientFrozenPoints
	}

	a.TotalPoints = a.TotalPoints.Sub(amount)
	a.FrozenPoints = a.FrozenPoints.Sub(amount)
	a.TotalSpent = a.TotalSpent.Add(amount)
	return nil
}

// UsageRate reports lifetime spent over lifetime earned, for statistics.
func (a *PointAccount) UsageRate() decimal.Decimal {
	if a.TotalEarned.IsZero() {
		return decimal.Zero
	}
	return a.TotalSpent.DivRound(a.TotalEarned, 4)
}

// IsConsistent checks total == available + frozen and that no bucket went
// negative. Exposed for the reconciliation audit, checked before every commit.
func (a *PointAccount) IsConsistent() bool {
	if a.TotalPoints.LessThan(decimal.Zero) ||
		a.AvailablePoints.LessThan(decimal.Zero) ||
		a.FrozenPoints.LessThan(decimal.Zero) {
		return false
	}
	return a.TotalPoints.Equal(a.AvailablePoints.Add(a.FrozenPoints))
}

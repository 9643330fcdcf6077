package entity

import "errors"

// Ledger and order failures callers are expected to branch on. Everything else
// is wrapped infrastructure error.
var (
	// ErrInvalidAmount rejects zero or negative amounts before any state is touched.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientPoints means the available bucket cannot cover the request.
	ErrInsufficientPoints = errors.New("insufficient available points")

	// ErrInsufficientFrozenPoints means the frozen bucket cannot cover the request.
	ErrInsufficientFrozenPoints = errors.New("insufficient frozen points")

	// ErrAccountNotFound is returned where an account was required to already exist.
	ErrAccountNotFound = errors.New("point account not found")

	// ErrConsistencyViolation signals total != available + frozen after a
	// mutation. It indicates a bug, forces a rollback and must never be swallowed.
	ErrConsistencyViolation = errors.New("point account consistency violation")

	// ErrInvalidState rejects an order transition not permitted from the
	// current status. No ledger mutation happens.
	ErrInvalidState = errors.New("order status does not permit this transition")

	ErrOrderNotFound         = errors.New("order not found")
	ErrSelfPurchase          = errors.New("cannot purchase your own project")
	ErrAlreadyPurchased      = errors.New("project already purchased")
	ErrAccessDenied          = errors.New("no access to this order")
	ErrSelfTransfer          = errors.New("cannot transfer points to yourself")
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectNotPurchasable = errors.New("project is not purchasable")
)

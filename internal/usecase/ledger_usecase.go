package usecase

import (
	"fmt"

	"codemarket/internal/entity"
	"codemarket/internal/repo/persistent"
	"codemarket/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerUseCase is the only writer of point accounts and point transactions.
// Every public operation runs in its own database transaction; the *Tx methods
// join a caller-owned transaction so an order transition and its financial
// side effect commit together or not at all.
type LedgerUseCase interface {
	GetAccount(userID uint64) (*entity.PointAccount, error)
	CheckBalance(userID uint64, amount decimal.Decimal) (bool, error)

	Recharge(userID uint64, amount decimal.Decimal, description string) (*entity.PointTransaction, error)
	Consume(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error)
	Reward(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error)
	Refund(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error)
	Transfer(fromUserID, toUserID uint64, amount decimal.Decimal, description string) ([]*entity.PointTransaction, error)
	Freeze(userID uint64, amount decimal.Decimal, reason string) (*entity.PointTransaction, error)
	Unfreeze(userID uint64, amount decimal.Decimal, reason string) (*entity.PointTransaction, error)
	AdjustPoints(userID uint64, amount decimal.Decimal, reason string, adminUserID uint64) (*entity.PointTransaction, error)
	BatchReward(userIDs []uint64, amount decimal.Decimal, reason string) ([]*entity.PointTransaction, error)

	GetTransactions(userID uint64, limit, offset int) ([]*entity.PointTransaction, error)
	GetTransactionsByType(userID uint64, txType entity.TransactionType, limit, offset int) ([]*entity.PointTransaction, error)
	GetStatistics(userID uint64) (*PointStatistics, error)
	FindInconsistentAccounts() ([]*entity.PointAccount, error)

	// Order-settlement primitives. They run inside tx, lock accounts in
	// ascending user id order and record the matching transactions.
	FreezeTx(tx *gorm.DB, userID uint64, amount decimal.Decimal, orderNo string) error
	UnfreezeTx(tx *gorm.DB, userID uint64, amount decimal.Decimal, orderNo string) error
	SettleTx(tx *gorm.DB, buyerID, sellerID uint64, amount decimal.Decimal, orderNo string) error
	ReverseTx(tx *gorm.DB, sellerID, buyerID uint64, amount decimal.Decimal, orderNo string) error
}

// PointStatistics is the per-user reporting view over the account counters.
type PointStatistics struct {
	UserID           uint64          `json:"user_id"`
	TotalPoints      decimal.Decimal `json:"total_points"`
	AvailablePoints  decimal.Decimal `json:"available_points"`
	FrozenPoints     decimal.Decimal `json:"frozen_points"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	UsageRate        decimal.Decimal `json:"usage_rate"`
	TransactionCount int64           `json:"transaction_count"`
}

type ledgerUseCase struct {
	db        *gorm.DB
	pointRepo persistent.PointRepository
	logger    *logger.Logger
}

func NewLedgerUseCase(db *gorm.DB, pointRepo persistent.PointRepository, logger *logger.Logger) LedgerUseCase {
	return &ledgerUseCase{
		db:        db,
		pointRepo: pointRepo,
		logger:    logger,
	}
}

func (uc *ledgerUseCase) GetAccount(userID uint64) (*entity.PointAccount, error) {
	account, err := uc.pointRepo.GetOrCreate(userID)
	if err != nil {
		uc.logger.Error("Failed to get point account for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to get point account: %w", err)
	}
	return account, nil
}

func (uc *ledgerUseCase) CheckBalance(userID uint64, amount decimal.Decimal) (bool, error) {
	account, err := uc.pointRepo.GetByUserID(userID)
	if err != nil {
		if err == entity.ErrAccountNotFound {
			return false, nil
		}
		return false, err
	}
	return account.HasEnoughPoints(amount), nil
}

func (uc *ledgerUseCase) Recharge(userID uint64, amount decimal.Decimal, description string) (*entity.PointTransaction, error) {
	uc.logger.Info("Recharging points: userID=%d amount=%s", userID, amount)
	if description == "" {
		description = "points recharge"
	}

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.credit(uc.pointRepo.WithTx(tx), userID, entity.TransactionTypeRecharge, amount, description, "", "")
		return err
	})
	if err != nil {
		uc.logger.Error("Recharge failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

func (uc *ledgerUseCase) Consume(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	uc.logger.Info("Consuming points: userID=%d amount=%s ref=%s/%s", userID, amount, referenceType, referenceID)
	if description == "" {
		description = "points consumption"
	}

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.debit(uc.pointRepo.WithTx(tx), userID, amount, description, referenceType, referenceID)
		return err
	})
	if err != nil {
		uc.logger.Error("Consume failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

func (uc *ledgerUseCase) Reward(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	uc.logger.Info("Rewarding points: userID=%d amount=%s ref=%s/%s", userID, amount, referenceType, referenceID)
	if description == "" {
		description = "points reward"
	}

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.credit(uc.pointRepo.WithTx(tx), userID, entity.TransactionTypeReward, amount, description, referenceType, referenceID)
		return err
	})
	if err != nil {
		uc.logger.Error("Reward failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

func (uc *ledgerUseCase) Refund(userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	uc.logger.Info("Refunding points: userID=%d amount=%s ref=%s/%s", userID, amount, referenceType, referenceID)
	if description == "" {
		description = "points refund"
	}

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.credit(uc.pointRepo.WithTx(tx), userID, entity.TransactionTypeRefund, amount, description, referenceType, referenceID)
		return err
	})
	if err != nil {
		uc.logger.Error("Refund failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

// Transfer moves points between two users as one debit plus one credit in a
// single transaction. Both legs share a correlation id in their reference so
// they reconcile as a pair.
func (uc *ledgerUseCase) Transfer(fromUserID, toUserID uint64, amount decimal.Decimal, description string) ([]*entity.PointTransaction, error) {
	uc.logger.Info("Transferring points: from=%d to=%d amount=%s", fromUserID, toUserID, amount)

	if fromUserID == toUserID {
		return nil, entity.ErrSelfTransfer
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, entity.ErrInvalidAmount
	}

	correlationID := uuid.New().String()
	var legs []*entity.PointTransaction

	err := uc.db.Transaction(func(tx *gorm.DB) error {
		repo := uc.pointRepo.WithTx(tx)

		// Lock both accounts in ascending user id order to avoid deadlock
		// between two transfers running in opposite directions.
		if _, err := uc.lockPair(repo, fromUserID, toUserID); err != nil {
			return err
		}

		out, err := uc.debit(repo, fromUserID, amount, "transfer out: "+description, entity.ReferenceTypeTransfer, correlationID)
		if err != nil {
			return err
		}
		in, err := uc.credit(repo, toUserID, entity.TransactionTypeRecharge, amount, "transfer in: "+description, entity.ReferenceTypeTransfer, correlationID)
		if err != nil {
			return err
		}

		legs = []*entity.PointTransaction{out, in}
		return nil
	})
	if err != nil {
		uc.logger.Error("Transfer failed: from=%d to=%d amount=%s: %v", fromUserID, toUserID, amount, err)
		return nil, err
	}
	return legs, nil
}

func (uc *ledgerUseCase) Freeze(userID uint64, amount decimal.Decimal, reason string) (*entity.PointTransaction, error) {
	uc.logger.Info("Freezing points: userID=%d amount=%s reason=%s", userID, amount, reason)

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.freeze(uc.pointRepo.WithTx(tx), userID, amount, reason, "", "")
		return err
	})
	if err != nil {
		uc.logger.Error("Freeze failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

func (uc *ledgerUseCase) Unfreeze(userID uint64, amount decimal.Decimal, reason string) (*entity.PointTransaction, error) {
	uc.logger.Info("Unfreezing points: userID=%d amount=%s reason=%s", userID, amount, reason)

	var transaction *entity.PointTransaction
	err := uc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = uc.unfreeze(uc.pointRepo.WithTx(tx), userID, amount, reason, "", "")
		return err
	})
	if err != nil {
		uc.logger.Error("Unfreeze failed: userID=%d amount=%s: %v", userID, amount, err)
		return nil, err
	}
	return transaction, nil
}

// AdjustPoints is the admin backdoor: positive amounts are granted as a
// reward, negative amounts deducted as a consumption, both tagged MANUAL.
func (uc *ledgerUseCase) AdjustPoints(userID uint64, amount decimal.Decimal, reason string, adminUserID uint64) (*entity.PointTransaction, error) {
	uc.logger.Info("Adjusting points: userID=%d amount=%s admin=%d reason=%s", userID, amount, adminUserID, reason)

	if amount.IsZero() {
		return nil, entity.ErrInvalidAmount
	}

	description := fmt.Sprintf("manual adjustment by admin %d: %s", adminUserID, reason)
	referenceID := fmt.Sprintf("%d", adminUserID)

	if amount.IsPositive() {
		return uc.Reward(userID, amount, description, entity.ReferenceTypeManual, referenceID)
	}
	return uc.Consume(userID, amount.Neg(), description, entity.ReferenceTypeManual, referenceID)
}

func (uc *ledgerUseCase) BatchReward(userIDs []uint64, amount decimal.Decimal, reason string) ([]*entity.PointTransaction, error) {
	uc.logger.Info("Batch rewarding %d users: amount=%s reason=%s", len(userIDs), amount, reason)

	transactions := make([]*entity.PointTransaction, 0, len(userIDs))
	for _, userID := range userIDs {
		transaction, err := uc.Reward(userID, amount, reason, entity.ReferenceTypeManual, "")
		if err != nil {
			uc.logger.Error("Batch reward failed for user %d: %v", userID, err)
			continue
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

func (uc *ledgerUseCase) GetTransactions(userID uint64, limit, offset int) ([]*entity.PointTransaction, error) {
	transactions, err := uc.pointRepo.ListTransactions(userID, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to list transactions for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (uc *ledgerUseCase) GetTransactionsByType(userID uint64, txType entity.TransactionType, limit, offset int) ([]*entity.PointTransaction, error) {
	transactions, err := uc.pointRepo.ListTransactionsByType(userID, txType, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to list %s transactions for user %d: %v", txType, userID, err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (uc *ledgerUseCase) GetStatistics(userID uint64) (*PointStatistics, error) {
	account, err := uc.pointRepo.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get point account: %w", err)
	}

	count, err := uc.pointRepo.CountTransactions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return &PointStatistics{
		UserID:           userID,
		TotalPoints:      account.TotalPoints,
		AvailablePoints:  account.AvailablePoints,
		FrozenPoints:     account.FrozenPoints,
		TotalEarned:      account.TotalEarned,
		TotalSpent:       account.TotalSpent,
		UsageRate:        account.UsageRate(),
		TransactionCount: count,
	}, nil
}

func (uc *ledgerUseCase) FindInconsistentAccounts() ([]*entity.PointAccount, error) {
	accounts, err := uc.pointRepo.FindInconsistentAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to audit accounts: %w", err)
	}
	if len(accounts) > 0 {
		uc.logger.Warn("Found %d inconsistent point accounts", len(accounts))
	}
	return accounts, nil
}

// ==================== order settlement primitives ====================

func (uc *ledgerUseCase) FreezeTx(tx *gorm.DB, userID uint64, amount decimal.Decimal, orderNo string) error {
	_, err := uc.freeze(uc.pointRepo.WithTx(tx), userID, amount, "points held for order "+orderNo, entity.ReferenceTypeOrder, orderNo)
	return err
}

func (uc *ledgerUseCase) UnfreezeTx(tx *gorm.DB, userID uint64, amount decimal.Decimal, orderNo string) error {
	_, err := uc.unfreeze(uc.pointRepo.WithTx(tx), userID, amount, "hold released for order "+orderNo, entity.ReferenceTypeOrder, orderNo)
	return err
}

// SettleTx realizes a paid order: the buyer's hold becomes spent and the
// seller earns the same amount, both in the caller's transaction.
func (uc *ledgerUseCase) SettleTx(tx *gorm.DB, buyerID, sellerID uint64, amount decimal.Decimal, orderNo string) error {
	repo := uc.pointRepo.WithTx(tx)

	if _, err := uc.lockPair(repo, buyerID, sellerID); err != nil {
		return err
	}

	if err := uc.confirmFrozen(repo, buyerID, amount, "payment settled for order "+orderNo, orderNo); err != nil {
		return err
	}
	if _, err := uc.credit(repo, sellerID, entity.TransactionTypeReward, amount, "earnings from order "+orderNo, entity.ReferenceTypeOrder, orderNo); err != nil {
		return err
	}
	return nil
}

// ReverseTx compensates an already-settled order: the seller gives back the
// earning from available points and the buyer is refunded. The seller's
// balance can never go negative; if the earnings were already spent the
// refund fails as a whole.
func (uc *ledgerUseCase) ReverseTx(tx *gorm.DB, sellerID, buyerID uint64, amount decimal.Decimal, orderNo string) error {
	repo := uc.pointRepo.WithTx(tx)

	if _, err := uc.lockPair(repo, sellerID, buyerID); err != nil {
		return err
	}

	if _, err := uc.withdraw(repo, sellerID, amount, "earnings reversed for refunded order "+orderNo, orderNo); err != nil {
		return err
	}
	if _, err := uc.credit(repo, buyerID, entity.TransactionTypeRefund, amount, "refund for order "+orderNo, entity.ReferenceTypeOrder, orderNo); err != nil {
		return err
	}
	return nil
}

// ==================== locked read-check-write helpers ====================

// lockPair acquires row locks on both accounts in ascending user id order.
func (uc *ledgerUseCase) lockPair(repo persistent.PointRepository, a, b uint64) ([]*entity.PointAccount, error) {
	first, second := a, b
	if first > second {
		first, second = second, first
	}

	accounts := make([]*entity.PointAccount, 0, 2)
	for _, userID := range []uint64{first, second} {
		account, err := repo.GetOrCreateForUpdate(userID)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// credit adds points to the available bucket and records the income
// transaction, creating the account if this is the user's first credit.
func (uc *ledgerUseCase) credit(repo persistent.PointRepository, userID uint64, txType entity.TransactionType, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	account, err := repo.GetOrCreateForUpdate(userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.AvailablePoints
	if err := account.AddPoints(amount); err != nil {
		return nil, err
	}

	return uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.AvailablePoints,
		Description:   description,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        entity.TransactionStatusSuccess,
	})
}

// debit spends from the available bucket; the account must already exist.
func (uc *ledgerUseCase) debit(repo persistent.PointRepository, userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	account, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.AvailablePoints
	if err := account.DeductPoints(amount); err != nil {
		return nil, err
	}

	return uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          entity.TransactionTypeConsume,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.AvailablePoints,
		Description:   description,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        entity.TransactionStatusSuccess,
	})
}

// freeze places a hold. The hold is recorded as a processing consumption
// against the available bucket; confirmFrozen or unfreeze finishes the story.
func (uc *ledgerUseCase) freeze(repo persistent.PointRepository, userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	account, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.AvailablePoints
	if err := account.FreezePoints(amount); err != nil {
		return nil, err
	}

	return uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          entity.TransactionTypeConsume,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.AvailablePoints,
		Description:   description,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        entity.TransactionStatusProcessing,
	})
}

func (uc *ledgerUseCase) unfreeze(repo persistent.PointRepository, userID uint64, amount decimal.Decimal, description, referenceType, referenceID string) (*entity.PointTransaction, error) {
	account, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.AvailablePoints
	if err := account.UnfreezePoints(amount); err != nil {
		return nil, err
	}

	return uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          entity.TransactionTypeRefund,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.AvailablePoints,
		Description:   description,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Status:        entity.TransactionStatusSuccess,
	})
}

// confirmFrozen turns a hold into a spend. The tracked bucket is the total,
// which is what actually shrinks here.
func (uc *ledgerUseCase) confirmFrozen(repo persistent.PointRepository, userID uint64, amount decimal.Decimal, description, orderNo string) error {
	account, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return err
	}

	balanceBefore := account.TotalPoints
	if err := account.DeductFrozenPoints(amount); err != nil {
		return err
	}

	_, err = uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          entity.TransactionTypeConsume,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.TotalPoints,
		Description:   description,
		ReferenceType: entity.ReferenceTypeOrder,
		ReferenceID:   orderNo,
		Status:        entity.TransactionStatusSuccess,
	})
	return err
}

// withdraw takes already-realized earnings back out of the available bucket.
func (uc *ledgerUseCase) withdraw(repo persistent.PointRepository, userID uint64, amount decimal.Decimal, description, orderNo string) (*entity.PointTransaction, error) {
	account, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.AvailablePoints
	if err := account.DeductPoints(amount); err != nil {
		return nil, err
	}

	return uc.commitMutation(repo, account, &entity.PointTransaction{
		UserID:        userID,
		Type:          entity.TransactionTypeWithdraw,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  account.AvailablePoints,
		Description:   description,
		ReferenceType: entity.ReferenceTypeOrder,
		ReferenceID:   orderNo,
		Status:        entity.TransactionStatusSuccess,
	})
}

// commitMutation persists the mutated account and its transaction as one
// unit and verifies the invariants before letting the transaction commit.
func (uc *ledgerUseCase) commitMutation(repo persistent.PointRepository, account *entity.PointAccount, transaction *entity.PointTransaction) (*entity.PointTransaction, error) {
	if !account.IsConsistent() {
		uc.logger.Error("Consistency violation on account userID=%d: total=%s available=%s frozen=%s",
			account.UserID, account.TotalPoints, account.AvailablePoints, account.FrozenPoints)
		return nil, entity.ErrConsistencyViolation
	}
	if !transaction.IsConsistent() {
		uc.logger.Error("Consistency violation on transaction userID=%d type=%s amount=%s before=%s after=%s",
			transaction.UserID, transaction.Type, transaction.Amount, transaction.BalanceBefore, transaction.BalanceAfter)
		return nil, entity.ErrConsistencyViolation
	}

	if err := repo.Save(account); err != nil {
		return nil, err
	}
	if err := repo.CreateTransaction(transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

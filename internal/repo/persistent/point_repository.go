package persistent

import (
	"errors"

	"codemarket/internal/entity"
	"codemarket/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointRepository interface {
	// WithTx returns a repository bound to tx so ledger writes share one
	// database transaction with their callers.
	WithTx(tx *gorm.DB) PointRepository

	GetByUserID(userID uint64) (*entity.PointAccount, error)
	// GetByUserIDForUpdate takes a row-level write lock for the duration of the
	// enclosing transaction. Must only be called on a tx-bound repository.
	GetByUserIDForUpdate(userID uint64) (*entity.PointAccount, error)
	GetOrCreate(userID uint64) (*entity.PointAccount, error)
	GetOrCreateForUpdate(userID uint64) (*entity.PointAccount, error)
	Save(account *entity.PointAccount) error

	CreateTransaction(transaction *entity.PointTransaction) error
	ListTransactions(userID uint64, limit, offset int) ([]*entity.PointTransaction, error)
	ListTransactionsByType(userID uint64, txType entity.TransactionType, limit, offset int) ([]*entity.PointTransaction, error)
	CountTransactions(userID uint64) (int64, error)

	FindInconsistentAccounts() ([]*entity.PointAccount, error)
}

type pointRepository struct {
	db *gorm.DB
}

func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{db: db}
}

func (r *pointRepository) WithTx(tx *gorm.DB) PointRepository {
	return &pointRepository{db: tx}
}

// forUpdate adds SELECT ... FOR UPDATE on dialects that support it. The sqlite
// test database has no FOR UPDATE syntax and serializes writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *pointRepository) GetByUserID(userID uint64) (*entity.PointAccount, error) {
	var accountModel model.PointAccountModel
	if err := r.db.Where("user_id = ?", userID).First(&accountModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrAccountNotFound
		}
		return nil, err
	}
	return ToPointAccountEntity(&accountModel), nil
}

func (r *pointRepository) GetByUserIDForUpdate(userID uint64) (*entity.PointAccount, error) {
	var accountModel model.PointAccountModel
	if err := forUpdate(r.db).Where("user_id = ?", userID).First(&accountModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrAccountNotFound
		}
		return nil, err
	}
	return ToPointAccountEntity(&accountModel), nil
}

func (r *pointRepository) GetOrCreate(userID uint64) (*entity.PointAccount, error) {
	account, err := r.GetByUserID(userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, entity.ErrAccountNotFound) {
		return nil, err
	}
	return r.create(userID)
}

func (r *pointRepository) GetOrCreateForUpdate(userID uint64) (*entity.PointAccount, error) {
	account, err := r.GetByUserIDForUpdate(userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, entity.ErrAccountNotFound) {
		return nil, err
	}
	// A freshly inserted row is already locked by the inserting transaction.
	return r.create(userID)
}

func (r *pointRepository) create(userID uint64) (*entity.PointAccount, error) {
	accountModel := ToPointAccountModel(entity.NewPointAccount(userID))
	if err := r.db.Create(accountModel).Error; err != nil {
		return nil, err
	}
	return ToPointAccountEntity(accountModel), nil
}

func (r *pointRepository) Save(account *entity.PointAccount) error {
	return r.db.Save(ToPointAccountModel(account)).Error
}

func (r *pointRepository) CreateTransaction(transaction *entity.PointTransaction) error {
	transactionModel := ToPointTransactionModel(transaction)
	if err := r.db.Create(transactionModel).Error; err != nil {
		return err
	}
	transaction.ID = transactionModel.ID
	transaction.CreatedAt = transactionModel.CreatedAt
	return nil
}

func (r *pointRepository) ListTransactions(userID uint64, limit, offset int) ([]*entity.PointTransaction, error) {
	return r.listTransactions(r.db.Where("user_id = ?", userID), limit, offset)
}

func (r *pointRepository) ListTransactionsByType(userID uint64, txType entity.TransactionType, limit, offset int) ([]*entity.PointTransaction, error) {
	return r.listTransactions(r.db.Where("user_id = ? AND type = ?", userID, string(txType)), limit, offset)
}

func (r *pointRepository) listTransactions(query *gorm.DB, limit, offset int) ([]*entity.PointTransaction, error) {
	var transactionModels []model.PointTransactionModel
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.PointTransaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToPointTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

func (r *pointRepository) CountTransactions(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&model.PointTransactionModel{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// FindInconsistentAccounts is the offline reconciliation query backing the
// consistency audit. The hot path never scans history.
func (r *pointRepository) FindInconsistentAccounts() ([]*entity.PointAccount, error) {
	var accountModels []model.PointAccountModel
	err := r.db.
		Where("total_points <> available_points + frozen_points OR total_points < 0 OR available_points < 0 OR frozen_points < 0").
		Find(&accountModels).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]*entity.PointAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = ToPointAccountEntity(&accountModels[i])
	}
	return accounts, nil
}

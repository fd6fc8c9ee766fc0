package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type TransactionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, txn *types.Transaction) (*types.Transaction, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Transaction, error)
	ListByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, transactionType string) ([]*types.Transaction, error)
	AppendLines(ctx context.Context, tx *gorm.DB, lines []*types.TransactionLine) error
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return &transactionRepo{db: db, log: baseLog.With("repo", "TransactionRepo")}
}

func (r *transactionRepo) Create(ctx context.Context, tx *gorm.DB, txn *types.Transaction) (*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *transactionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Transaction
	err := transaction.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *transactionRepo) ListByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, transactionType string) ([]*types.Transaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Where("organization_id = ?", orgID)
	if transactionType != "" {
		query = query.Where("transaction_type = ?", transactionType)
	}
	var results []*types.Transaction
	if err := query.Order("transaction_date DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *transactionRepo) AppendLines(ctx context.Context, tx *gorm.DB, lines []*types.TransactionLine) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lines) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&lines).Error
}

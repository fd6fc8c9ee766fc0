package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/apierr"
	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/repos"
	"github.com/heraerp/platform/internal/types"
)

// RecordTransactionInput describes one business event to post and persist.
type RecordTransactionInput struct {
	OrganizationID  uuid.UUID       `json:"organization_id"`
	TransactionType string          `json:"transaction_type"`
	SmartCode       string          `json:"smart_code"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Conditions      map[string]bool `json:"conditions,omitempty"`
}

// TransactionService runs the posting engine over a business event and writes
// the result to universal_transactions. A transaction only lands with its
// full line set; if the engine rejects the event nothing is written.
type TransactionService interface {
	Record(ctx context.Context, input RecordTransactionInput) (*types.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Transaction, error)
	ListByOrg(ctx context.Context, orgID uuid.UUID, transactionType string) ([]*types.Transaction, error)
}

type transactionService struct {
	db      *gorm.DB
	log     *logger.Logger
	posting PostingEngine
	txns    repos.TransactionRepo
}

func NewTransactionService(db *gorm.DB, baseLog *logger.Logger, posting PostingEngine, txns repos.TransactionRepo) TransactionService {
	return &transactionService{
		db:      db,
		log:     baseLog.With("service", "TransactionService"),
		posting: posting,
		txns:    txns,
	}
}

func (s *transactionService) Record(ctx context.Context, input RecordTransactionInput) (*types.Transaction, error) {
	if input.OrganizationID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	if input.TransactionType == "" {
		return nil, apierr.Validation("transaction_type is required")
	}

	txn := &types.Transaction{
		ID:              uuid.New(),
		OrganizationID:  input.OrganizationID,
		TransactionType: input.TransactionType,
		SmartCode:       input.SmartCode,
		TotalAmount:     input.TotalAmount,
		TransactionDate: time.Now().UTC(),
	}

	// Post before persisting; an unmatched or invalid event never reaches
	// the store.
	postings, err := s.posting.Apply(ctx, txn, input.Conditions)
	if err != nil {
		return nil, err
	}

	rows := make([]*types.TransactionLine, 0, len(postings))
	for _, line := range postings {
		data, err := json.Marshal(map[string]string{
			"account":    line.Account,
			"side":       line.Side,
			"smart_code": line.SmartCode,
		})
		if err != nil {
			return nil, fmt.Errorf("encode line data: %w", err)
		}
		rows = append(rows, &types.TransactionLine{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			LineNumber:    line.LineNumber,
			LineType:      line.Side,
			Description:   line.Description,
			LineAmount:    line.Amount,
			LineData:      data,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.txns.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := s.txns.AppendLines(ctx, tx, rows); err != nil {
			return fmt.Errorf("append lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transaction recorded",
		"transaction_id", txn.ID,
		"smart_code", txn.SmartCode,
		"line_count", len(rows),
	)
	return s.txns.GetByID(ctx, nil, txn.ID)
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*types.Transaction, error) {
	txn, err := s.txns.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	if txn == nil {
		return nil, apierr.NotFound("transaction %s not found", id)
	}
	return txn, nil
}

func (s *transactionService) ListByOrg(ctx context.Context, orgID uuid.UUID, transactionType string) ([]*types.Transaction, error) {
	if orgID == uuid.Nil {
		return nil, apierr.Validation("organization_id is required")
	}
	return s.txns.ListByOrg(ctx, nil, orgID, transactionType)
}

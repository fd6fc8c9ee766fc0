package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type FieldSelectionRepo interface {
	List(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, selectionType string) ([]types.FieldSelection, error)
	Save(ctx context.Context, tx *gorm.DB, sel *types.FieldSelection) error
}

type fieldSelectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFieldSelectionRepo(db *gorm.DB, baseLog *logger.Logger) FieldSelectionRepo {
	return &fieldSelectionRepo{db: db, log: baseLog.With("repo", "FieldSelectionRepo")}
}

// List returns selections default-first so callers can take the first match.
func (r *fieldSelectionRepo) List(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, selectionType string) ([]types.FieldSelection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.FieldSelection
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_type = ? AND selection_type = ?", orgID, entityType, selectionType).
		Order("is_default DESC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fieldSelectionRepo) Save(ctx context.Context, tx *gorm.DB, sel *types.FieldSelection) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(sel).Error
}

package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type EntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entity *types.Entity) (*types.Entity, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Entity, error)
	ListByType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType string) ([]*types.Entity, error)
	FindByCode(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, code string) (*types.Entity, error)
	UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error
	HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: baseLog.With("repo", "EntityRepo")}
}

func (r *entityRepo) Create(ctx context.Context, tx *gorm.DB, entity *types.Entity) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *entityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Entity
	err := transaction.WithContext(ctx).
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

// ListByType returns live rows only; soft-deleted entities stay in the table
// but never surface here.
func (r *entityRepo) ListByType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType string) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_type = ? AND status <> ?", orgID, entityType, types.EntityStatusDeleted).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *entityRepo) FindByCode(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, code string) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Entity
	err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_type = ? AND entity_code = ?", orgID, entityType, code).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *entityRepo) UpdateName(ctx context.Context, tx *gorm.DB, id uuid.UUID, name string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Update("entity_name", name).Error
}

func (r *entityRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// HardDelete removes the row outright. Only the create-compensation path and
// administrative purges call this; everything else soft-deletes via SetStatus.
func (r *entityRepo) HardDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Entity{}).Error
}

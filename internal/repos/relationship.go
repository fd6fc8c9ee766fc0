package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type RelationshipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rel *types.Relationship) (*types.Relationship, error)
	ListFrom(ctx context.Context, tx *gorm.DB, orgID, fromEntityID uuid.UUID) ([]*types.Relationship, error)
	ListTo(ctx context.Context, tx *gorm.DB, orgID, toEntityID uuid.UUID) ([]*types.Relationship, error)
	ListByType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, relationshipType string) ([]*types.Relationship, error)
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: baseLog.With("repo", "RelationshipRepo")}
}

func (r *relationshipRepo) Create(ctx context.Context, tx *gorm.DB, rel *types.Relationship) (*types.Relationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *relationshipRepo) ListFrom(ctx context.Context, tx *gorm.DB, orgID, fromEntityID uuid.UUID) ([]*types.Relationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Relationship
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND from_entity_id = ?", orgID, fromEntityID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *relationshipRepo) ListTo(ctx context.Context, tx *gorm.DB, orgID, toEntityID uuid.UUID) ([]*types.Relationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Relationship
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND to_entity_id = ?", orgID, toEntityID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *relationshipRepo) ListByType(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, relationshipType string) ([]*types.Relationship, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Relationship
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND relationship_type = ?", orgID, relationshipType).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

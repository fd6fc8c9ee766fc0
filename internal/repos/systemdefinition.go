package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

// SystemDefinitionRepo reads the immutable system schema. Upsert exists for
// seeding and administrative loads only; the request path never writes here.
type SystemDefinitionRepo interface {
	ListByKind(ctx context.Context, tx *gorm.DB, kind types.SchemaKind, codeFilter string) ([]types.SystemDefinition, error)
	GetByKindAndCode(ctx context.Context, tx *gorm.DB, kind types.SchemaKind, code string) (*types.SystemDefinition, error)
	Upsert(ctx context.Context, tx *gorm.DB, def *types.SystemDefinition) error
}

type systemDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) SystemDefinitionRepo {
	return &systemDefinitionRepo{db: db, log: baseLog.With("repo", "SystemDefinitionRepo")}
}

func (r *systemDefinitionRepo) ListByKind(ctx context.Context, tx *gorm.DB, kind types.SchemaKind, codeFilter string) ([]types.SystemDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).
		Where("kind = ? AND is_active = ?", string(kind), true)
	if codeFilter != "" {
		query = query.Where("code = ?", codeFilter)
	}
	var results []types.SystemDefinition
	if err := query.Order("code ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *systemDefinitionRepo) GetByKindAndCode(ctx context.Context, tx *gorm.DB, kind types.SchemaKind, code string) (*types.SystemDefinition, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.SystemDefinition
	err := transaction.WithContext(ctx).
		Where("kind = ? AND code = ? AND is_active = ?", string(kind), code, true).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *systemDefinitionRepo) Upsert(ctx context.Context, tx *gorm.DB, def *types.SystemDefinition) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "definition", "is_active", "updated_at"}),
		}).
		Create(def).Error
}

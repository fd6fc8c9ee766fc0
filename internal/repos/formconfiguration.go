package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type FormConfigurationRepo interface {
	List(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, formType string) ([]types.FormConfiguration, error)
	Save(ctx context.Context, tx *gorm.DB, form *types.FormConfiguration) error
}

type formConfigurationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormConfigurationRepo(db *gorm.DB, baseLog *logger.Logger) FormConfigurationRepo {
	return &formConfigurationRepo{db: db, log: baseLog.With("repo", "FormConfigurationRepo")}
}

func (r *formConfigurationRepo) List(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityType, formType string) ([]types.FormConfiguration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_type = ?", orgID, entityType)
	if formType != "" {
		query = query.Where("form_type = ?", formType)
	}
	var results []types.FormConfiguration
	if err := query.Order("is_default DESC, created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *formConfigurationRepo) Save(ctx context.Context, tx *gorm.DB, form *types.FormConfiguration) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(form).Error
}

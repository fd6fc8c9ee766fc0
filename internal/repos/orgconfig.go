package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

type OrgConfigRepo interface {
	GetByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*types.OrgSystemConfig, error)
	Save(ctx context.Context, tx *gorm.DB, cfg *types.OrgSystemConfig) error
}

type orgConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgConfigRepo(db *gorm.DB, baseLog *logger.Logger) OrgConfigRepo {
	return &orgConfigRepo{db: db, log: baseLog.With("repo", "OrgConfigRepo")}
}

// GetByOrg returns nil, nil for an unconfigured org; that is a normal state,
// not an error.
func (r *orgConfigRepo) GetByOrg(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (*types.OrgSystemConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.OrgSystemConfig
	err := transaction.WithContext(ctx).
		Where("organization_id = ?", orgID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *orgConfigRepo) Save(ctx context.Context, tx *gorm.DB, cfg *types.OrgSystemConfig) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(cfg).Error
}

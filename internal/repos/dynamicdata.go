package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/heraerp/platform/internal/platform/logger"
	"github.com/heraerp/platform/internal/types"
)

// AttributeRepo is the typed attribute store: one live row per
// (entity_id, field_name), exactly one variant column populated per row.
// Every query carries the organization predicate; entity ids alone never
// cross a tenant boundary.
type AttributeRepo interface {
	Put(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID, fieldName string, value types.TypedValue) error
	GetAll(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID) (map[string]types.TypedValue, error)
	GetForEntities(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityIDs []uuid.UUID) (map[uuid.UUID]map[string]types.TypedValue, error)
	GetByEntityAndField(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID, fieldName string) (*types.DynamicData, error)
	DeleteForEntity(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID) error
}

type attributeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttributeRepo(db *gorm.DB, baseLog *logger.Logger) AttributeRepo {
	return &attributeRepo{db: db, log: baseLog.With("repo", "AttributeRepo")}
}

// Put upserts by (entity_id, field_name). The update path rewrites every
// variant column through TypedValue.ApplyTo, so a row that changes type
// cannot end up with two populated variants.
func (r *attributeRepo) Put(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID, fieldName string, value types.TypedValue) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetByEntityAndField(ctx, transaction, orgID, entityID, fieldName)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := value.ApplyTo(existing); err != nil {
			return err
		}
		return transaction.WithContext(ctx).
			Model(&types.DynamicData{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"field_value_text":    existing.FieldValueText,
				"field_value_number":  existing.FieldValueNumber,
				"field_value_boolean": existing.FieldValueBoolean,
				"field_value_json":    existing.FieldValueJSON,
				"field_value_date":    existing.FieldValueDate,
			}).Error
	}

	row := types.DynamicData{
		OrganizationID: orgID,
		EntityID:       entityID,
		FieldName:      fieldName,
	}
	if err := value.ApplyTo(&row); err != nil {
		return err
	}
	return transaction.WithContext(ctx).Create(&row).Error
}

func (r *attributeRepo) GetAll(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID) (map[string]types.TypedValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []types.DynamicData
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_id = ?", orgID, entityID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]types.TypedValue, len(rows))
	for _, row := range rows {
		value, err := types.FromRow(row)
		if err != nil {
			return nil, err
		}
		out[row.FieldName] = value
	}
	return out, nil
}

func (r *attributeRepo) GetForEntities(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, entityIDs []uuid.UUID) (map[uuid.UUID]map[string]types.TypedValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[uuid.UUID]map[string]types.TypedValue, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	var rows []types.DynamicData
	if err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_id IN ?", orgID, entityIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		value, err := types.FromRow(row)
		if err != nil {
			return nil, err
		}
		fields, ok := out[row.EntityID]
		if !ok {
			fields = map[string]types.TypedValue{}
			out[row.EntityID] = fields
		}
		fields[row.FieldName] = value
	}
	return out, nil
}

func (r *attributeRepo) GetByEntityAndField(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID, fieldName string) (*types.DynamicData, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.DynamicData
	err := transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_id = ? AND field_name = ?", orgID, entityID, fieldName).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteForEntity hard-deletes all attribute rows of an entity. Attributes
// only ever go away when their owning entity does.
func (r *attributeRepo) DeleteForEntity(ctx context.Context, tx *gorm.DB, orgID, entityID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("organization_id = ? AND entity_id = ?", orgID, entityID).
		Delete(&types.DynamicData{}).Error
}

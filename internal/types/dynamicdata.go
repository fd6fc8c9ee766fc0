package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DynamicData is one typed attribute row. Exactly one field_value_* column is
// populated per row; writers go through TypedValue.ApplyTo which nulls the
// others on every update. At most one row is live per (entity_id, field_name).
type DynamicData struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID    uuid.UUID      `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	EntityID          uuid.UUID      `gorm:"type:uuid;not null;column:entity_id;uniqueIndex:idx_dynamic_data_entity_field,priority:1" json:"entity_id"`
	FieldName         string         `gorm:"not null;column:field_name;uniqueIndex:idx_dynamic_data_entity_field,priority:2" json:"field_name"`
	FieldValueText    *string        `gorm:"column:field_value_text" json:"field_value_text,omitempty"`
	FieldValueNumber  *float64       `gorm:"column:field_value_number" json:"field_value_number,omitempty"`
	FieldValueBoolean *bool          `gorm:"column:field_value_boolean" json:"field_value_boolean,omitempty"`
	FieldValueJSON    datatypes.JSON `gorm:"column:field_value_json" json:"field_value_json,omitempty"`
	FieldValueDate    *time.Time     `gorm:"column:field_value_date" json:"field_value_date,omitempty"`
	SmartCode         string         `gorm:"column:smart_code" json:"smart_code"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DynamicData) TableName() string {
	return "core_dynamic_data"
}

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrgSystemConfig is the mutable per-tenant configuration layered over the
// system schema: which building blocks are enabled and any overrides.
type OrgSystemConfig struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex;column:organization_id" json:"organization_id"`
	EnabledEntityTypes datatypes.JSON `gorm:"column:enabled_entity_types" json:"enabled_entity_types,omitempty"`
	EnabledFieldTypes  datatypes.JSON `gorm:"column:enabled_field_types" json:"enabled_field_types,omitempty"`
	FeatureFlags       datatypes.JSON `gorm:"column:feature_flags" json:"feature_flags,omitempty"`
	Overrides          datatypes.JSON `gorm:"column:overrides" json:"overrides,omitempty"`
	UpdatedBy          string         `gorm:"column:updated_by" json:"updated_by"`
	CreatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (OrgSystemConfig) TableName() string {
	return "org_system_configs"
}

// FieldSelection narrows and annotates an entity type's fields for one
// tenant and one selection context (list view, form, export, ...).
type FieldSelection struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID      uuid.UUID      `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	EntityType          string         `gorm:"not null;column:entity_type" json:"entity_type"`
	SelectionType       string         `gorm:"not null;column:selection_type" json:"selection_type"`
	IsDefault           bool           `gorm:"not null;default:false;column:is_default" json:"is_default"`
	SelectedFields      datatypes.JSON `gorm:"column:selected_fields" json:"selected_fields,omitempty"`
	HiddenFields        datatypes.JSON `gorm:"column:hidden_fields" json:"hidden_fields,omitempty"`
	RequiredFields      datatypes.JSON `gorm:"column:required_fields" json:"required_fields,omitempty"`
	ReadonlyFields      datatypes.JSON `gorm:"column:readonly_fields" json:"readonly_fields,omitempty"`
	FieldConfigurations datatypes.JSON `gorm:"column:field_configurations" json:"field_configurations,omitempty"`
	CreatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FieldSelection) TableName() string {
	return "org_field_selections"
}

func (s FieldSelection) DecodeSelectedFields() map[string]bool {
	out := map[string]bool{}
	_ = json.Unmarshal(s.SelectedFields, &out)
	return out
}

func (s FieldSelection) DecodeHiddenFields() []string {
	return decodeStringList(s.HiddenFields)
}

func (s FieldSelection) DecodeRequiredFields() []string {
	return decodeStringList(s.RequiredFields)
}

func (s FieldSelection) DecodeReadonlyFields() []string {
	return decodeStringList(s.ReadonlyFields)
}

func (s FieldSelection) DecodeFieldConfigurations() map[string]FieldDef {
	out := map[string]FieldDef{}
	_ = json.Unmarshal(s.FieldConfigurations, &out)
	return out
}

func decodeStringList(raw datatypes.JSON) []string {
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}

// FormConfiguration is a tenant's layout and validation bundle for one
// entity type and form context.
type FormConfiguration struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID  uuid.UUID      `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	EntityType      string         `gorm:"not null;column:entity_type" json:"entity_type"`
	FormType        string         `gorm:"not null;column:form_type" json:"form_type"`
	IsDefault       bool           `gorm:"not null;default:false;column:is_default" json:"is_default"`
	FieldLayout     datatypes.JSON `gorm:"column:field_layout" json:"field_layout,omitempty"`
	ValidationRules datatypes.JSON `gorm:"column:validation_rules" json:"validation_rules,omitempty"`
	DefaultValues   datatypes.JSON `gorm:"column:default_values" json:"default_values,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FormConfiguration) TableName() string {
	return "org_form_configurations"
}

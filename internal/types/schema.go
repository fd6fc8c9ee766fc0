package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SchemaKind string

const (
	SchemaKindComponent  SchemaKind = "component"
	SchemaKindTemplate   SchemaKind = "template"
	SchemaKindEntityType SchemaKind = "entity_type"
	SchemaKindFieldType  SchemaKind = "field_type"
	SchemaKindSmartCode  SchemaKind = "smart_code"
)

func (k SchemaKind) Valid() bool {
	switch k {
	case SchemaKindComponent, SchemaKindTemplate, SchemaKindEntityType, SchemaKindFieldType, SchemaKindSmartCode:
		return true
	default:
		return false
	}
}

// SystemDefinition is one immutable system-schema building block. Kind
// selects the payload shape carried in Definition; Code is the lookup key
// within a kind (entity type name, field type name, smart code).
type SystemDefinition struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	Kind       string         `gorm:"not null;column:kind;uniqueIndex:idx_system_definitions_kind_code,priority:1" json:"kind"`
	Code       string         `gorm:"not null;column:code;uniqueIndex:idx_system_definitions_kind_code,priority:2" json:"code"`
	Name       string         `gorm:"column:name" json:"name"`
	Definition datatypes.JSON `gorm:"not null;column:definition" json:"definition"`
	IsActive   bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SystemDefinition) TableName() string {
	return "system_definitions"
}

// FieldDef is one field entry inside an entity-type definition or a tenant
// field-configuration override.
type FieldDef struct {
	Type       string                 `json:"type,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Required   bool                   `json:"required,omitempty"`
	Readonly   bool                   `json:"readonly,omitempty"`
	Default    interface{}            `json:"default,omitempty"`
	Options    []string               `json:"options,omitempty"`
	Validation map[string]interface{} `json:"validation,omitempty"`
}

// EntityTypeDefinition is the decoded payload of a SchemaKindEntityType row.
type EntityTypeDefinition struct {
	EntityType     string                 `json:"entity_type"`
	BaseFields     map[string]FieldDef    `json:"base_fields"`
	OptionalFields map[string]FieldDef    `json:"optional_fields,omitempty"`
	Validation     map[string]interface{} `json:"validation,omitempty"`
}

// SmartCodeDefinition is the decoded payload of a SchemaKindSmartCode row.
type SmartCodeDefinition struct {
	Code          string                 `json:"code"`
	BusinessRules map[string]interface{} `json:"business_rules,omitempty"`
	PostingRules  json.RawMessage        `json:"posting_rules,omitempty"`
}

func (d SystemDefinition) DecodeEntityType() (EntityTypeDefinition, error) {
	var out EntityTypeDefinition
	err := json.Unmarshal(d.Definition, &out)
	return out, err
}

func (d SystemDefinition) DecodeSmartCode() (SmartCodeDefinition, error) {
	var out SmartCodeDefinition
	err := json.Unmarshal(d.Definition, &out)
	return out, err
}

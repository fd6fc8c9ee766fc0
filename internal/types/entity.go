package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EntityStatusActive  = "active"
	EntityStatusDeleted = "deleted"
)

// Entity is the single base row every business object maps onto. Anything
// beyond these columns lives in core_dynamic_data. Code uniqueness is scoped
// to (organization_id, entity_type).
type Entity struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;column:organization_id;uniqueIndex:idx_entities_org_type_code,priority:1" json:"organization_id"`
	EntityType     string         `gorm:"not null;column:entity_type;uniqueIndex:idx_entities_org_type_code,priority:2" json:"entity_type"`
	EntityName     string         `gorm:"not null;column:entity_name" json:"entity_name"`
	EntityCode     string         `gorm:"not null;column:entity_code;uniqueIndex:idx_entities_org_type_code,priority:3" json:"entity_code"`
	SmartCode      string         `gorm:"not null;column:smart_code" json:"smart_code"`
	Status         string         `gorm:"not null;default:active;column:status" json:"status"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Entity) TableName() string {
	return "core_entities"
}

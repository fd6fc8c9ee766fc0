package types

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is a directed edge between two entities. Cardinality is
// whatever callers impose; the platform enforces none.
type Relationship struct {
	ID               uuid.UUID `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID   uuid.UUID `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	FromEntityID     uuid.UUID `gorm:"type:uuid;not null;index;column:from_entity_id" json:"from_entity_id"`
	ToEntityID       uuid.UUID `gorm:"type:uuid;not null;index;column:to_entity_id" json:"to_entity_id"`
	RelationshipType string    `gorm:"not null;column:relationship_type" json:"relationship_type"`
	SmartCode        string    `gorm:"column:smart_code" json:"smart_code"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Relationship) TableName() string {
	return "core_relationships"
}

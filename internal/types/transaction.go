package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Transaction is a typed business event. Its smart code is the join key into
// the posting-rule engine.
type Transaction struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	OrganizationID  uuid.UUID         `gorm:"type:uuid;not null;index;column:organization_id" json:"organization_id"`
	TransactionType string            `gorm:"not null;column:transaction_type" json:"transaction_type"`
	SmartCode       string            `gorm:"not null;column:smart_code" json:"smart_code"`
	TotalAmount     decimal.Decimal   `gorm:"type:numeric(20,4);not null;column:total_amount" json:"total_amount"`
	TransactionDate time.Time         `gorm:"not null;column:transaction_date" json:"transaction_date"`
	Lines           []TransactionLine `gorm:"foreignKey:TransactionID" json:"lines,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "universal_transactions"
}

// TransactionLine is an ordered child of a transaction; both what happened
// (sale lines) and what the posting engine generated (ledger lines) use this
// shape.
type TransactionLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:(uuid_generate_v4());primaryKey" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index;column:transaction_id" json:"transaction_id"`
	LineNumber    int             `gorm:"not null;column:line_number" json:"line_number"`
	LineType      string          `gorm:"not null;column:line_type" json:"line_type"`
	Description   string          `gorm:"column:description" json:"description"`
	Quantity      decimal.Decimal `gorm:"type:numeric(20,4);column:quantity" json:"quantity"`
	UnitAmount    decimal.Decimal `gorm:"type:numeric(20,4);column:unit_amount" json:"unit_amount"`
	LineAmount    decimal.Decimal `gorm:"type:numeric(20,4);column:line_amount" json:"line_amount"`
	LineData      datatypes.JSON  `gorm:"column:line_data" json:"line_data,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TransactionLine) TableName() string {
	return "universal_transaction_lines"
}

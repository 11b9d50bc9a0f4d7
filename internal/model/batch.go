package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductionBatch anchors finished-batch restocks and ingredient deductions.
// Lots and ledger events reference it so a finished bar of soap can be traced
// back to the production run that made it.
type ProductionBatch struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_batches_org_code,priority:1" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	Code        string     `gorm:"type:varchar(40);not null;uniqueIndex:idx_batches_org_code,priority:2" json:"code" validate:"required"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

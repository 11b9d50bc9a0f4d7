package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/unit"
)

// LedgerEvent is one append-only history row per inventory-affecting action.
// A single deduction request fans out into one event per lot it touches.
// Events are never updated or deleted.
type LedgerEvent struct {
	BaseModel
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_events_org_item,priority:1" json:"organization_id"`
	ItemID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_events_org_item,priority:2" json:"item_id"`
	Item           *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`

	ChangeType string `gorm:"type:varchar(30);not null" json:"change_type"`

	// Signed quantity delta in base units. Positive for stock in, negative
	// for stock out, zero for informational events.
	DeltaBase int64           `gorm:"not null" json:"delta_base"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`

	// The specific lot this event debited or credited, when there is one.
	LotID   *uuid.UUID `gorm:"type:uuid;index" json:"lot_id,omitempty"`
	LotCode string     `gorm:"type:varchar(40)" json:"lot_code,omitempty"`

	BatchID *uuid.UUID `gorm:"type:uuid;index" json:"batch_id,omitempty"`

	Notes   string `gorm:"type:text" json:"notes,omitempty"`
	ActorID string `gorm:"type:varchar(255)" json:"actor_id"`

	// Sale metadata, populated for sale events only.
	Customer  string           `gorm:"type:varchar(255)" json:"customer,omitempty"`
	SalePrice *decimal.Decimal `gorm:"type:decimal(20,4)" json:"sale_price,omitempty"`
	OrderID   string           `gorm:"type:varchar(100)" json:"order_id,omitempty"`
}

// Delta projects the signed base delta into the event's display unit.
func (e *LedgerEvent) Delta() float64 {
	d, err := unit.FromBase(e.DeltaBase, e.Unit)
	if err != nil {
		return 0
	}
	return d
}

package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/unit"
)

// InventoryItem is one trackable item per organization. QuantityBase is the
// single source of truth; the float quantity callers see is a read-time
// projection (DisplayQuantity), never stored or written independently.
//
// QuantityBase is only ever written by the ledger engine's apply step. No
// service or handler writes it directly.
type InventoryItem struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_items_org_name,priority:1" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`

	Name string `gorm:"type:varchar(255);not null;uniqueIndex:idx_items_org_name,priority:2" json:"name" validate:"required"`
	SKU  string `gorm:"type:varchar(50)" json:"sku"`
	Unit string `gorm:"type:varchar(20);not null" json:"unit" validate:"required"`

	// Canonical on-hand quantity, integer-scaled per the unit's kind.
	QuantityBase int64 `gorm:"not null;default:0" json:"quantity_base"`

	// Moving weighted-average cost per display unit, recomputed from active
	// lots after every committed adjustment.
	UnitCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`

	LowStockThreshold float64 `gorm:"default:0" json:"low_stock_threshold"`
	Perishable        bool    `gorm:"default:false" json:"perishable"`
	ShelfLifeDays     int     `gorm:"default:0" json:"shelf_life_days"`

	// Density in g/ml, needed to convert between weight and volume units.
	// Zero means unknown (conversion across kinds will fail).
	Density float64 `gorm:"default:0" json:"density"`

	// Tracked=false marks an "infinite" item: usage is logged but the
	// quantity never changes.
	Tracked bool `gorm:"default:true" json:"tracked"`
}

// DisplayQuantity projects the canonical base quantity into the item's
// display unit.
func (i *InventoryItem) DisplayQuantity() float64 {
	q, err := unit.FromBase(i.QuantityBase, i.Unit)
	if err != nil {
		return 0
	}
	return q
}

// ItemResponse is the API projection of an item, carrying the derived float
// quantity alongside the canonical base value.
type ItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Unit              string          `json:"unit"`
	Quantity          float64         `json:"quantity"`
	QuantityBase      int64           `json:"quantity_base"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	LowStockThreshold float64         `json:"low_stock_threshold"`
	Perishable        bool            `json:"perishable"`
	ShelfLifeDays     int             `json:"shelf_life_days"`
	Density           float64         `json:"density"`
	Tracked           bool            `json:"tracked"`
}

// ToResponse converts an InventoryItem to its API projection.
func (i *InventoryItem) ToResponse() ItemResponse {
	return ItemResponse{
		ID:                i.ID,
		Name:              i.Name,
		SKU:               i.SKU,
		Unit:              i.Unit,
		Quantity:          i.DisplayQuantity(),
		QuantityBase:      i.QuantityBase,
		UnitCost:          i.UnitCost,
		LowStockThreshold: i.LowStockThreshold,
		Perishable:        i.Perishable,
		ShelfLifeDays:     i.ShelfLifeDays,
		Density:           i.Density,
		Tracked:           i.Tracked,
	}
}

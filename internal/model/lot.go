package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/unit"
)

// InventoryLot is one physical stock-receipt event. Invariant:
// 0 <= RemainingBase <= OriginalBase. A fully drained lot stays in the table
// as an audit record; "active lot" queries exclude it.
type InventoryLot struct {
	BaseModel
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	ItemID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	Item           *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`

	// Human-facing lot code, shared with the ledger event that created it.
	Code string `gorm:"type:varchar(40);uniqueIndex;not null" json:"code"`

	RemainingBase int64           `gorm:"not null" json:"remaining_base"`
	OriginalBase  int64           `gorm:"not null" json:"original_base"`
	Unit          string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`

	ReceivedAt    time.Time  `gorm:"not null;index" json:"received_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ShelfLifeDays *int       `json:"shelf_life_days,omitempty"`

	// What brought this lot into existence: restock, initial_stock,
	// finished_batch, manual_addition, recount, credit overflow, etc.
	SourceType string `gorm:"type:varchar(30);not null" json:"source_type"`

	BatchID *uuid.UUID `gorm:"type:uuid;index" json:"batch_id,omitempty"`
}

// Active reports whether the lot still holds stock.
func (l *InventoryLot) Active() bool {
	return l.RemainingBase > 0
}

// RefillCapacity returns how much base quantity the lot can absorb before
// hitting its original size.
func (l *InventoryLot) RefillCapacity() int64 {
	return l.OriginalBase - l.RemainingBase
}

// IsExpired returns true if the lot has an expiration date in the past.
func (l *InventoryLot) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// LotResponse is the API projection of a lot with display quantities.
type LotResponse struct {
	ID            uuid.UUID       `json:"id"`
	ItemID        uuid.UUID       `json:"item_id"`
	Code          string          `json:"code"`
	Remaining     float64         `json:"remaining"`
	Original      float64         `json:"original"`
	RemainingBase int64           `json:"remaining_base"`
	OriginalBase  int64           `json:"original_base"`
	Unit          string          `json:"unit"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReceivedAt    time.Time       `json:"received_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	SourceType    string          `json:"source_type"`
	BatchID       *uuid.UUID      `json:"batch_id,omitempty"`
}

// ToResponse converts an InventoryLot to its API projection.
func (l *InventoryLot) ToResponse() LotResponse {
	remaining, _ := unit.FromBase(l.RemainingBase, l.Unit)
	original, _ := unit.FromBase(l.OriginalBase, l.Unit)
	return LotResponse{
		ID:            l.ID,
		ItemID:        l.ItemID,
		Code:          l.Code,
		Remaining:     remaining,
		Original:      original,
		RemainingBase: l.RemainingBase,
		OriginalBase:  l.OriginalBase,
		Unit:          l.Unit,
		UnitCost:      l.UnitCost,
		ReceivedAt:    l.ReceivedAt,
		ExpiresAt:     l.ExpiresAt,
		SourceType:    l.SourceType,
		BatchID:       l.BatchID,
	}
}

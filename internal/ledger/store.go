package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/model"
)

// Scope carries the tenant and actor for one ledger call. It is passed
// explicitly into every operation; there is no ambient "current organization"
// anywhere in this package.
type Scope struct {
	OrgID   uuid.UUID
	ActorID string
}

// Store is what the engine runs against. The gorm implementation lives in
// internal/repository; tests use internal/repository/memory.
type Store interface {
	// Transact runs fn inside one transaction. The Store handed to fn sees
	// uncommitted writes; any error rolls everything back.
	Transact(ctx context.Context, fn func(tx Store) error) error

	Items() ItemStore
	Lots() LotStore
	Events() EventStore
}

// ItemStore reads and writes inventory items. SetQuantityBase is the single
// write path for an item's authoritative quantity; only the engine's apply
// step calls it.
type ItemStore interface {
	// GetForUpdate fetches the item and locks its row for the remainder of
	// the transaction. Cross-organization ids return ErrItemNotFound.
	GetForUpdate(ctx context.Context, scope Scope, id uuid.UUID) (*model.InventoryItem, error)

	// SetQuantityBase writes the authoritative quantity. Engine-only.
	SetQuantityBase(ctx context.Context, scope Scope, id uuid.UUID, quantityBase int64) error

	// SetUnitCost writes the moving-average unit cost.
	SetUnitCost(ctx context.Context, scope Scope, id uuid.UUID, cost decimal.Decimal) error
}

// LotStore is CRUD over lots. The orderings are a hard contract: they decide
// cost attribution and expiration exposure.
type LotStore interface {
	Create(ctx context.Context, scope Scope, lot *model.InventoryLot) error

	// ListActive returns lots with remaining stock, oldest received first.
	// This ordering is the FIFO contract.
	ListActive(ctx context.Context, scope Scope, itemID uuid.UUID) ([]model.InventoryLot, error)

	// ListRefillable returns lots where remaining < original, newest received
	// first. Used only by recount growth.
	ListRefillable(ctx context.Context, scope Scope, itemID uuid.UUID) ([]model.InventoryLot, error)

	// ListByItem returns every lot for the item, oldest received first,
	// including fully drained ones. Used by the credit-back walk.
	ListByItem(ctx context.Context, scope Scope, itemID uuid.UUID) ([]model.InventoryLot, error)

	// Update persists lot mutations (remaining quantity changes).
	Update(ctx context.Context, scope Scope, lot *model.InventoryLot) error
}

// EventStore appends to the immutable history.
type EventStore interface {
	Append(ctx context.Context, scope Scope, event *model.LedgerEvent) error
	CountByItem(ctx context.Context, scope Scope, itemID uuid.UUID) (int64, error)
	ListByItem(ctx context.Context, scope Scope, itemID uuid.UUID) ([]model.LedgerEvent, error)
}

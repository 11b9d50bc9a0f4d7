package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
)

// Store is the gorm-backed ledger.Store. Every query is organization-scoped;
// a cross-tenant id fails with NotFound instead of silently returning an
// empty result.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transact runs fn inside one database transaction. The Store handed to fn
// wraps the tx handle, so all repository calls inside participate in it.
func (s *Store) Transact(ctx context.Context, fn func(tx ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Items() ledger.ItemStore   { return &itemStore{db: s.db} }
func (s *Store) Lots() ledger.LotStore     { return &lotStore{db: s.db} }
func (s *Store) Events() ledger.EventStore { return &eventStore{db: s.db} }

type itemStore struct {
	db *gorm.DB
}

// GetForUpdate locks the item row for the rest of the transaction
// (SELECT ... FOR UPDATE), serializing concurrent adjustments on the same
// item.
func (s *itemStore) GetForUpdate(ctx context.Context, scope ledger.Scope, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ? AND organization_id = ?", id, scope.OrgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *itemStore) SetQuantityBase(ctx context.Context, scope ledger.Scope, id uuid.UUID, quantityBase int64) error {
	res := s.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ? AND organization_id = ?", id, scope.OrgID).
		Updates(map[string]interface{}{
			"quantity_base": quantityBase,
			"updated_by":    scope.ActorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

func (s *itemStore) SetUnitCost(ctx context.Context, scope ledger.Scope, id uuid.UUID, cost decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Where("id = ? AND organization_id = ?", id, scope.OrgID).
		Updates(map[string]interface{}{
			"unit_cost":  cost,
			"updated_by": scope.ActorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrItemNotFound
	}
	return nil
}

type lotStore struct {
	db *gorm.DB
}

func (s *lotStore) Create(ctx context.Context, scope ledger.Scope, lot *model.InventoryLot) error {
	lot.OrganizationID = scope.OrgID
	return s.db.WithContext(ctx).Create(lot).Error
}

// ListActive returns lots with remaining stock, oldest received first. This
// is the FIFO deduction order.
func (s *lotStore) ListActive(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	var lots []model.InventoryLot
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND organization_id = ? AND remaining_base > 0", itemID, scope.OrgID).
		Order("received_at ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

// ListRefillable returns under-full lots newest received first, the recount
// growth order. Intentionally the reverse of ListActive.
func (s *lotStore) ListRefillable(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	var lots []model.InventoryLot
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND organization_id = ? AND remaining_base < original_base", itemID, scope.OrgID).
		Order("received_at DESC, created_at DESC").
		Find(&lots).Error
	return lots, err
}

func (s *lotStore) ListByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	var lots []model.InventoryLot
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND organization_id = ?", itemID, scope.OrgID).
		Order("received_at ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (s *lotStore) Update(ctx context.Context, scope ledger.Scope, lot *model.InventoryLot) error {
	res := s.db.WithContext(ctx).Model(&model.InventoryLot{}).
		Where("id = ? AND organization_id = ?", lot.ID, scope.OrgID).
		Updates(map[string]interface{}{
			"remaining_base": lot.RemainingBase,
			"updated_by":     scope.ActorID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrLotNotFound
	}
	return nil
}

type eventStore struct {
	db *gorm.DB
}

func (s *eventStore) Append(ctx context.Context, scope ledger.Scope, event *model.LedgerEvent) error {
	event.OrganizationID = scope.OrgID
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *eventStore) CountByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.LedgerEvent{}).
		Where("item_id = ? AND organization_id = ?", itemID, scope.OrgID).
		Count(&n).Error
	return n, err
}

func (s *eventStore) ListByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.LedgerEvent, error) {
	var events []model.LedgerEvent
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND organization_id = ?", itemID, scope.OrgID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// Package memory provides an in-memory ledger.Store used by unit tests. It
// mirrors the gorm store's semantics: organization scoping on every call,
// ordered lot listings, and transactional rollback (implemented as a snapshot
// restore).
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
)

type state struct {
	items  map[uuid.UUID]model.InventoryItem
	lots   map[uuid.UUID]model.InventoryLot
	lotSeq map[uuid.UUID]int64 // insertion order, breaks received_at ties
	events []model.LedgerEvent
	seq    int64
}

func newState() *state {
	return &state{
		items:  make(map[uuid.UUID]model.InventoryItem),
		lots:   make(map[uuid.UUID]model.InventoryLot),
		lotSeq: make(map[uuid.UUID]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.lotSeq {
		c.lotSeq[k] = v
	}
	c.events = append(c.events, s.events...)
	c.seq = s.seq
	return c
}

// Store implements ledger.Store in memory. Transact serializes callers with
// a mutex-free single-goroutine assumption typical of tests; rollback is a
// snapshot restore.
type Store struct {
	state *state
	inTx  bool
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Transact(ctx context.Context, fn func(tx ledger.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	snapshot := s.state.clone()
	err := fn(&Store{state: s.state, inTx: true})
	if err != nil {
		*s.state = *snapshot
	}
	return err
}

func (s *Store) Items() ledger.ItemStore   { return &itemStore{s.state} }
func (s *Store) Lots() ledger.LotStore     { return &lotStore{s.state} }
func (s *Store) Events() ledger.EventStore { return &eventStore{s.state} }

// PutItem seeds an item directly, assigning an id when missing. Test helper.
func (s *Store) PutItem(item *model.InventoryItem) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.state.items[item.ID] = *item
}

// GetItem returns a copy of the stored item, ignoring scope. Test helper.
func (s *Store) GetItem(id uuid.UUID) (model.InventoryItem, bool) {
	item, ok := s.state.items[id]
	return item, ok
}

type itemStore struct {
	st *state
}

func (s *itemStore) GetForUpdate(ctx context.Context, scope ledger.Scope, id uuid.UUID) (*model.InventoryItem, error) {
	item, ok := s.st.items[id]
	if !ok || item.OrganizationID != scope.OrgID {
		return nil, ledger.ErrItemNotFound
	}
	copied := item
	return &copied, nil
}

func (s *itemStore) SetQuantityBase(ctx context.Context, scope ledger.Scope, id uuid.UUID, quantityBase int64) error {
	item, ok := s.st.items[id]
	if !ok || item.OrganizationID != scope.OrgID {
		return ledger.ErrItemNotFound
	}
	item.QuantityBase = quantityBase
	item.UpdatedBy = scope.ActorID
	s.st.items[id] = item
	return nil
}

func (s *itemStore) SetUnitCost(ctx context.Context, scope ledger.Scope, id uuid.UUID, cost decimal.Decimal) error {
	item, ok := s.st.items[id]
	if !ok || item.OrganizationID != scope.OrgID {
		return ledger.ErrItemNotFound
	}
	item.UnitCost = cost
	item.UpdatedBy = scope.ActorID
	s.st.items[id] = item
	return nil
}

type lotStore struct {
	st *state
}

func (s *lotStore) Create(ctx context.Context, scope ledger.Scope, lot *model.InventoryLot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	lot.OrganizationID = scope.OrgID
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = time.Now()
	}
	s.st.seq++
	s.st.lotSeq[lot.ID] = s.st.seq
	s.st.lots[lot.ID] = *lot
	return nil
}

func (s *lotStore) list(scope ledger.Scope, itemID uuid.UUID, keep func(model.InventoryLot) bool, newestFirst bool) []model.InventoryLot {
	var lots []model.InventoryLot
	for _, lot := range s.st.lots {
		if lot.ItemID != itemID || lot.OrganizationID != scope.OrgID {
			continue
		}
		if keep != nil && !keep(lot) {
			continue
		}
		lots = append(lots, lot)
	}
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			if newestFirst {
				return a.ReceivedAt.After(b.ReceivedAt)
			}
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		if newestFirst {
			return s.st.lotSeq[a.ID] > s.st.lotSeq[b.ID]
		}
		return s.st.lotSeq[a.ID] < s.st.lotSeq[b.ID]
	})
	return lots
}

func (s *lotStore) ListActive(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	return s.list(scope, itemID, func(l model.InventoryLot) bool { return l.RemainingBase > 0 }, false), nil
}

func (s *lotStore) ListRefillable(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	return s.list(scope, itemID, func(l model.InventoryLot) bool { return l.RemainingBase < l.OriginalBase }, true), nil
}

func (s *lotStore) ListByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.InventoryLot, error) {
	return s.list(scope, itemID, nil, false), nil
}

func (s *lotStore) Update(ctx context.Context, scope ledger.Scope, lot *model.InventoryLot) error {
	stored, ok := s.st.lots[lot.ID]
	if !ok || stored.OrganizationID != scope.OrgID {
		return ledger.ErrLotNotFound
	}
	stored.RemainingBase = lot.RemainingBase
	stored.UpdatedBy = scope.ActorID
	s.st.lots[lot.ID] = stored
	return nil
}

type eventStore struct {
	st *state
}

func (s *eventStore) Append(ctx context.Context, scope ledger.Scope, event *model.LedgerEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.OrganizationID = scope.OrgID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.st.events = append(s.st.events, *event)
	return nil
}

func (s *eventStore) CountByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) (int64, error) {
	var n int64
	for i := range s.st.events {
		if s.st.events[i].ItemID == itemID && s.st.events[i].OrganizationID == scope.OrgID {
			n++
		}
	}
	return n, nil
}

func (s *eventStore) ListByItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) ([]model.LedgerEvent, error) {
	var events []model.LedgerEvent
	for i := range s.st.events {
		if s.st.events[i].ItemID == itemID && s.st.events[i].OrganizationID == scope.OrgID {
			events = append(events, s.st.events[i])
		}
	}
	// newest first, matching the gorm store
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

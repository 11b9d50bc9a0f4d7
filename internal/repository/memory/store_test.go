package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
)

func TestTransactRollsBackOnError(t *testing.T) {
	store := NewStore()
	scope := ledger.Scope{OrgID: uuid.New(), ActorID: "tester"}
	ctx := context.Background()

	item := &model.InventoryItem{OrganizationID: scope.OrgID, Name: "wax", Unit: "g", Tracked: true}
	store.PutItem(item)

	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx ledger.Store) error {
		if err := tx.Items().SetQuantityBase(ctx, scope, item.ID, 42); err != nil {
			return err
		}
		lot := &model.InventoryLot{ItemID: item.ID, Code: "LOT-X", RemainingBase: 42, OriginalBase: 42, Unit: "g", ReceivedAt: time.Now()}
		if err := tx.Lots().Create(ctx, scope, lot); err != nil {
			return err
		}
		if err := tx.Events().Append(ctx, scope, &model.LedgerEvent{ItemID: item.ID, ChangeType: "restock", DeltaBase: 42, Unit: "g"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, ok := store.GetItem(item.ID)
	require.True(t, ok)
	assert.Equal(t, int64(0), got.QuantityBase)

	lots, err := store.Lots().ListByItem(ctx, scope, item.ID)
	require.NoError(t, err)
	assert.Empty(t, lots)

	n, err := store.Events().CountByItem(ctx, scope, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTransactCommitsOnSuccess(t *testing.T) {
	store := NewStore()
	scope := ledger.Scope{OrgID: uuid.New(), ActorID: "tester"}
	ctx := context.Background()

	item := &model.InventoryItem{OrganizationID: scope.OrgID, Name: "wax", Unit: "g", Tracked: true}
	store.PutItem(item)

	err := store.Transact(ctx, func(tx ledger.Store) error {
		return tx.Items().SetQuantityBase(ctx, scope, item.ID, 7)
	})
	require.NoError(t, err)

	got, _ := store.GetItem(item.ID)
	assert.Equal(t, int64(7), got.QuantityBase)
}

func TestScopingHidesOtherOrganizations(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	owner := ledger.Scope{OrgID: uuid.New(), ActorID: "a"}
	other := ledger.Scope{OrgID: uuid.New(), ActorID: "b"}

	item := &model.InventoryItem{OrganizationID: owner.OrgID, Name: "wax", Unit: "g"}
	store.PutItem(item)

	_, err := store.Items().GetForUpdate(ctx, other, item.ID)
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)

	err = store.Items().SetQuantityBase(ctx, other, item.ID, 1)
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func TestLotOrderings(t *testing.T) {
	store := NewStore()
	scope := ledger.Scope{OrgID: uuid.New(), ActorID: "tester"}
	ctx := context.Background()
	itemID := uuid.New()

	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(code string, received time.Time, remaining, original int64) {
		lot := &model.InventoryLot{ItemID: itemID, Code: code, RemainingBase: remaining, OriginalBase: original, Unit: "g", ReceivedAt: received}
		require.NoError(t, store.Lots().Create(ctx, scope, lot))
	}
	mk("old", t0, 10, 100)   // active, refillable
	mk("mid", t0.Add(time.Hour), 0, 50) // drained, refillable
	mk("new", t0.Add(2*time.Hour), 30, 30) // active, full

	active, err := store.Lots().ListActive(ctx, scope, itemID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "old", active[0].Code)
	assert.Equal(t, "new", active[1].Code)

	refillable, err := store.Lots().ListRefillable(ctx, scope, itemID)
	require.NoError(t, err)
	require.Len(t, refillable, 2)
	assert.Equal(t, "mid", refillable[0].Code, "newest refillable first")
	assert.Equal(t, "old", refillable[1].Code)

	all, err := store.Lots().ListByItem(ctx, scope, itemID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "old", all[0].Code)
	assert.Equal(t, "new", all[2].Code)
}

package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
)

func target(q float64) *float64 { return &q }

func TestRecountRequiresTarget(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeRecount,
	})
	assert.ErrorIs(t, err, ledger.ErrTargetRequired)
}

func TestRecountRejectedForUntrackedItem(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem(func(i *model.InventoryItem) { i.Tracked = false })

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(40),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrRecountUntracked)
	assert.True(t, ledger.IsClientError(err))

	// The absolute-set path never ran: quantity and history are untouched.
	assert.Equal(t, int64(0), f.itemQty(t, itemID))
	n, err := f.store.Events().CountByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRecountMatchLogsVerification(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(100),
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	assert.Equal(t, 100*gram, f.itemQty(t, itemID))

	// The verification itself lands in history as a zero-delta event.
	require.Len(t, res.Events, 1)
	assert.Equal(t, string(ledger.ChangeRecount), res.Events[0].ChangeType)
	assert.Equal(t, int64(0), res.Events[0].DeltaBase)
}

func TestRecountShrinkDrainsOldestFirst(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 50, "4")

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(90),
	})
	assert.Equal(t, -60*gram, res.DeltaBase)
	assert.Equal(t, 90*gram, f.itemQty(t, itemID))

	lots, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, 40*gram, lots[0].RemainingBase, "oldest lot absorbs the shrink")
	assert.Equal(t, 50*gram, lots[1].RemainingBase, "newer lot untouched")

	require.Len(t, res.Events, 1)
	assert.Equal(t, -60*gram, res.Events[0].DeltaBase)
	assert.Equal(t, lots[0].Code, res.Events[0].LotCode)
}

func TestRecountGrowthRefillsNewestFirst(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 100, "4")
	f.adjust(t, ledger.AdjustParams{ItemID: itemID, ChangeType: ledger.ChangeSale, Quantity: 120})
	// lot1 0/100, lot2 80/100

	lotsBefore, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lotsBefore, 2)

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(250),
	})
	assert.Equal(t, 170*gram, res.DeltaBase)
	assert.Equal(t, 250*gram, f.itemQty(t, itemID))

	// Growth credits the newest under-full lot first, then older ones, then
	// spills into a fresh lot. The deduction above goes the other way. The
	// asymmetry is the contract.
	require.Len(t, res.Events, 3)
	assert.Equal(t, lotsBefore[1].Code, res.Events[0].LotCode)
	assert.Equal(t, 20*gram, res.Events[0].DeltaBase)
	assert.Equal(t, lotsBefore[0].Code, res.Events[1].LotCode)
	assert.Equal(t, 100*gram, res.Events[1].DeltaBase)
	assert.Equal(t, 50*gram, res.Events[2].DeltaBase)

	lots, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, 100*gram, lots[0].RemainingBase)
	assert.Equal(t, 100*gram, lots[1].RemainingBase)
	assert.Equal(t, 50*gram, lots[2].RemainingBase)
	assert.Equal(t, string(ledger.ChangeRecount), lots[2].SourceType)
}

func TestRecountIsAbsoluteAndHealsDesync(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	// Corrupt the authoritative quantity so it disagrees with the lots.
	item, _ := f.store.GetItem(itemID)
	item.QuantityBase = 130 * gram
	f.store.PutItem(&item)

	report, err := f.eng.ValidateSync(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.False(t, report.Valid)

	// The recount delta is computed against the lot total, not the corrupted
	// quantity, and the item is set to the target outright.
	res := f.adjust(t, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(100),
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	assert.Equal(t, 100*gram, f.itemQty(t, itemID))

	report, err = f.eng.ValidateSync(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestRecountToZeroDrainsEverything(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 50, "4")

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeRecount,
		TargetQuantity: target(0),
	})
	assert.Equal(t, -150*gram, res.DeltaBase)
	assert.Equal(t, int64(0), f.itemQty(t, itemID))

	lots, err := f.store.Lots().ListActive(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.Empty(t, lots)
}

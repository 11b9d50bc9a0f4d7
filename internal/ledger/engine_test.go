package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
	"go-makerstock/internal/repository/memory"
)

const gram = int64(1_000_000) // base units per gram

type fixture struct {
	store *memory.Store
	eng   *ledger.Engine
	scope ledger.Scope
	now   time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: memory.NewStore(),
		scope: ledger.Scope{OrgID: uuid.New(), ActorID: "tester"},
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.eng = ledger.NewEngine(f.store, ledger.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) seedItem(mods ...func(*model.InventoryItem)) uuid.UUID {
	item := &model.InventoryItem{
		OrganizationID: f.scope.OrgID,
		Name:           "shea butter",
		Unit:           "g",
		Tracked:        true,
	}
	for _, mod := range mods {
		mod(item)
	}
	f.store.PutItem(item)
	return item.ID
}

func (f *fixture) adjust(t *testing.T, p ledger.AdjustParams) *ledger.Result {
	t.Helper()
	res, err := f.eng.Adjust(context.Background(), f.scope, p)
	require.NoError(t, err)
	return res
}

func (f *fixture) restock(t *testing.T, itemID uuid.UUID, grams float64, cost string) *ledger.Result {
	t.Helper()
	c := decimal.RequireFromString(cost)
	return f.adjust(t, ledger.AdjustParams{
		ItemID:       itemID,
		ChangeType:   ledger.ChangeRestock,
		Quantity:     grams,
		CostOverride: &c,
	})
}

func (f *fixture) itemQty(t *testing.T, itemID uuid.UUID) int64 {
	t.Helper()
	item, ok := f.store.GetItem(itemID)
	require.True(t, ok)
	return item.QuantityBase
}

func TestFirstEntryBootstrapsToInitialStock(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	res := f.restock(t, itemID, 100, "2")
	assert.Equal(t, ledger.ChangeInitialStock, res.ChangeType)
	require.Len(t, res.Events, 1)
	assert.Equal(t, string(ledger.ChangeInitialStock), res.Events[0].ChangeType)

	lots, err := f.store.Lots().ListActive(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, string(ledger.ChangeInitialStock), lots[0].SourceType)

	// The second restock is a plain restock.
	f.advance(time.Hour)
	res = f.restock(t, itemID, 50, "2")
	assert.Equal(t, ledger.ChangeRestock, res.ChangeType)
}

func TestZeroQuantityInitialStockEstablishesHistory(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeInitialStock,
		Quantity:   0,
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	assert.Equal(t, int64(0), f.itemQty(t, itemID))

	// The priming lot exists (empty) and the event is on record.
	lots, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, int64(0), lots[0].RemainingBase)
	assert.Equal(t, int64(0), lots[0].OriginalBase)
	assert.Equal(t, string(ledger.ChangeInitialStock), lots[0].SourceType)

	n, err := f.store.Events().CountByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// History already has its priming record, so a later restock keeps its
	// own label instead of being bootstrapped.
	f.advance(time.Hour)
	res = f.restock(t, itemID, 40, "2")
	assert.Equal(t, ledger.ChangeRestock, res.ChangeType)
}

func TestDeductionDrainsOldestFirst(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 50, "4")
	require.Equal(t, 150*gram, f.itemQty(t, itemID))

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeSale,
		Quantity:   120,
	})
	assert.Equal(t, -120*gram, res.DeltaBase)
	assert.Equal(t, 30.0, res.After)
	assert.Equal(t, 30*gram, f.itemQty(t, itemID))

	// One event per lot touched, oldest lot first, each at that lot's cost.
	require.Len(t, res.Events, 2)
	assert.Equal(t, -100*gram, res.Events[0].DeltaBase)
	assert.True(t, res.Events[0].UnitCost.Equal(decimal.RequireFromString("2")))
	assert.Equal(t, -20*gram, res.Events[1].DeltaBase)
	assert.True(t, res.Events[1].UnitCost.Equal(decimal.RequireFromString("4")))

	lots, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, int64(0), lots[0].RemainingBase)
	assert.Equal(t, 30*gram, lots[1].RemainingBase)
}

func TestInsufficientInventoryMutatesNothing(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 150, "2")

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeSale,
		Quantity:   200,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)

	var insErr *ledger.InsufficientInventoryError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 150*gram, insErr.AvailableBase)
	assert.Equal(t, 200*gram, insErr.RequestedBase)

	assert.Equal(t, 150*gram, f.itemQty(t, itemID))
	lots, err := f.store.Lots().ListActive(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 150*gram, lots[0].RemainingBase)
}

func TestComposedAdjustmentsRollBackTogether(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 150, "2")

	// A valid deduction followed by an impossible one inside the same
	// transaction must leave no trace of either.
	err := f.store.Transact(context.Background(), func(tx ledger.Store) error {
		if _, err := f.eng.AdjustWithin(context.Background(), tx, f.scope, ledger.AdjustParams{
			ItemID:     itemID,
			ChangeType: ledger.ChangeBatch,
			Quantity:   50,
		}); err != nil {
			return err
		}
		_, err := f.eng.AdjustWithin(context.Background(), tx, f.scope, ledger.AdjustParams{
			ItemID:     itemID,
			ChangeType: ledger.ChangeBatch,
			Quantity:   1000,
		})
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)

	assert.Equal(t, 150*gram, f.itemQty(t, itemID))
	n, err := f.store.Events().CountByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n) // only the restock survived
}

func TestCreditBackRefillsOldestFirstThenOverflows(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 100, "4")
	f.adjust(t, ledger.AdjustParams{ItemID: itemID, ChangeType: ledger.ChangeSale, Quantity: 150})
	// lot1 0/100, lot2 50/100

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeReturned,
		Quantity:   120,
	})
	assert.Equal(t, 120*gram, res.DeltaBase)
	assert.Equal(t, 170*gram, f.itemQty(t, itemID))

	// Oldest lot refilled first, then the newer one; no overflow needed.
	lots, err := f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, 100*gram, lots[0].RemainingBase)
	assert.Equal(t, 70*gram, lots[1].RemainingBase)

	// Crediting beyond total capacity spills into a fresh lot.
	res = f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeRefunded,
		Quantity:   50,
	})
	assert.Equal(t, 220*gram, f.itemQty(t, itemID))
	lots, err = f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 3)
	assert.Equal(t, 100*gram, lots[1].RemainingBase)
	assert.Equal(t, 20*gram, lots[2].RemainingBase)
	assert.Equal(t, string(ledger.ChangeRefunded), lots[2].SourceType)
	require.Len(t, res.Events, 2)
}

func TestUntrackedItemLogsButNeverMoves(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem(func(i *model.InventoryItem) {
		i.Name = "tap water"
		i.Unit = "ml"
		i.Tracked = false
	})

	// Deducting from an empty untracked item succeeds and logs the usage
	// without a lot reference.
	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeUse,
		Quantity:   500,
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	assert.Equal(t, int64(0), f.itemQty(t, itemID))
	require.Len(t, res.Events, 1)
	assert.Nil(t, res.Events[0].LotID)
	assert.Equal(t, -500*gram, res.Events[0].DeltaBase)

	// First-entry bootstrap never applies to deductions: the history starts
	// with the use itself.
	assert.Equal(t, ledger.ChangeUse, res.ChangeType)
}

func TestCrossOrganizationLooksLikeMissing(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	foreign := ledger.Scope{OrgID: uuid.New(), ActorID: "intruder"}
	_, err := f.eng.Adjust(context.Background(), foreign, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeSale,
		Quantity:   1,
	})
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func TestForeignUnitConvertsBeforeDispatch(t *testing.T) {
	f := newFixture()
	// density 0.5 g/ml: 100 ml weighs 50 g
	itemID := f.seedItem(func(i *model.InventoryItem) { i.Density = 0.5 })

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeRestock,
		Quantity:   100,
		Unit:       "ml",
	})
	assert.Equal(t, 50*gram, res.DeltaBase)
	assert.Equal(t, 50*gram, f.itemQty(t, itemID))
}

func TestConversionFailureAbortsEverything(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem() // density 0, weight<->volume impossible
	f.restock(t, itemID, 100, "2")

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeSale,
		Quantity:   10,
		Unit:       "ml",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrConversion)

	var convErr *ledger.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "ml", convErr.From)

	assert.Equal(t, 100*gram, f.itemQty(t, itemID))
}

func TestUnknownChangeTypeRejected(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeType("shrinkage"),
		Quantity:   1,
	})
	assert.ErrorIs(t, err, ledger.ErrUnknownOperation)
}

func TestMovingAverageCostTracksLots(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()

	f.restock(t, itemID, 100, "2")
	f.advance(time.Hour)
	f.restock(t, itemID, 100, "4")

	item, ok := f.store.GetItem(itemID)
	require.True(t, ok)
	assert.True(t, item.UnitCost.Equal(decimal.RequireFromString("3")), "got %s", item.UnitCost)

	// Draining the cheap lot pulls the average up to the expensive lot's cost.
	f.adjust(t, ledger.AdjustParams{ItemID: itemID, ChangeType: ledger.ChangeUse, Quantity: 100})
	item, _ = f.store.GetItem(itemID)
	assert.True(t, item.UnitCost.Equal(decimal.RequireFromString("4")), "got %s", item.UnitCost)
}

func TestCostOverride(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	newCost := decimal.RequireFromString("9.5")
	res := f.adjust(t, ledger.AdjustParams{
		ItemID:       itemID,
		ChangeType:   ledger.ChangeCostOverride,
		CostOverride: &newCost,
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	require.Len(t, res.Events, 1)
	assert.Equal(t, int64(0), res.Events[0].DeltaBase)

	item, _ := f.store.GetItem(itemID)
	assert.True(t, item.UnitCost.Equal(newCost), "got %s", item.UnitCost)
	assert.Equal(t, 100*gram, item.QuantityBase)

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeCostOverride,
	})
	assert.ErrorIs(t, err, ledger.ErrCostRequired)
}

func TestUnitConversionIsInformational(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem(func(i *model.InventoryItem) { i.Density = 0.9 })
	f.restock(t, itemID, 100, "2")

	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeUnitConversion,
		Unit:       "ml",
	})
	assert.Equal(t, int64(0), res.DeltaBase)
	assert.Equal(t, 100*gram, f.itemQty(t, itemID))
	require.Len(t, res.Events, 1)
	assert.Contains(t, res.Events[0].Notes, "1 ml")

	_, err := f.eng.Adjust(context.Background(), f.scope, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeUnitConversion,
		Unit:       "count",
	})
	assert.ErrorIs(t, err, ledger.ErrConversion)
}

func TestPerishableLotsInheritShelfLife(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem(func(i *model.InventoryItem) {
		i.Perishable = true
		i.ShelfLifeDays = 30
	})

	f.restock(t, itemID, 100, "2")
	lots, err := f.store.Lots().ListActive(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.NotNil(t, lots[0].ExpiresAt)
	assert.Equal(t, f.now.AddDate(0, 0, 30), *lots[0].ExpiresAt)

	// An explicit expiration wins over the item's shelf life.
	f.advance(time.Hour)
	custom := f.now.AddDate(0, 0, 7)
	f.adjust(t, ledger.AdjustParams{
		ItemID:           itemID,
		ChangeType:       ledger.ChangeRestock,
		Quantity:         50,
		CustomExpiration: &custom,
	})
	lots, err = f.store.Lots().ListByItem(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	require.NotNil(t, lots[1].ExpiresAt)
	assert.True(t, custom.Equal(*lots[1].ExpiresAt))
}

func TestSaleMetadataRecordedOnEvents(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	price := decimal.RequireFromString("24.99")
	res := f.adjust(t, ledger.AdjustParams{
		ItemID:     itemID,
		ChangeType: ledger.ChangeSale,
		Quantity:   10,
		Customer:   "corner store",
		SalePrice:  &price,
		OrderID:    "ORD-1042",
	})
	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, "corner store", ev.Customer)
	require.NotNil(t, ev.SalePrice)
	assert.True(t, ev.SalePrice.Equal(price))
	assert.Equal(t, "ORD-1042", ev.OrderID)
	assert.Equal(t, "tester", ev.ActorID)
}

func TestValidateSyncReportsHonestly(t *testing.T) {
	f := newFixture()
	itemID := f.seedItem()
	f.restock(t, itemID, 100, "2")

	report, err := f.eng.ValidateSync(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, report.QuantityBase, report.FifoTotalBase)

	// Corrupt the authoritative quantity behind the engine's back.
	item, _ := f.store.GetItem(itemID)
	item.QuantityBase = 120 * gram
	f.store.PutItem(&item)

	report, err = f.eng.ValidateSync(context.Background(), f.scope, itemID)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, 120*gram, report.QuantityBase)
	assert.Equal(t, 100*gram, report.FifoTotalBase)
}

func TestErrorChainUnwraps(t *testing.T) {
	err := error(&ledger.FifoSyncError{QuantityBase: 10, FifoTotalBase: 4})
	assert.True(t, errors.Is(err, ledger.ErrFifoSync))

	var fsErr *ledger.FifoSyncError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, int64(6), fsErr.Diff())
}

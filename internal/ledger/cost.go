package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"go-makerstock/internal/model"
)

// costEpsilon guards against noisy no-op cost writes.
var costEpsilon = decimal.NewFromFloat(0.0001)

// weightedAverageCost computes the quantity-weighted average unit cost across
// active lots. ok is false when there is no active stock to weigh.
func weightedAverageCost(lots []model.InventoryLot) (cost decimal.Decimal, ok bool) {
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for i := range lots {
		if lots[i].RemainingBase <= 0 {
			continue
		}
		qty := decimal.NewFromInt(lots[i].RemainingBase)
		totalQty = totalQty.Add(qty)
		totalValue = totalValue.Add(qty.Mul(lots[i].UnitCost))
	}
	if totalQty.IsZero() {
		return decimal.Zero, false
	}
	return totalValue.Div(totalQty).Round(4), true
}

// recomputeCost refreshes the item's moving-average cost from its active
// lots, writing only when the value actually moved. An item with no active
// stock keeps its last known cost.
func (e *Engine) recomputeCost(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem) error {
	lots, err := tx.Lots().ListActive(ctx, scope, item.ID)
	if err != nil {
		return err
	}
	avg, ok := weightedAverageCost(lots)
	if !ok {
		return nil
	}
	if avg.Sub(item.UnitCost).Abs().LessThanOrEqual(costEpsilon) {
		return nil
	}
	if err := tx.Items().SetUnitCost(ctx, scope, item.ID, avg); err != nil {
		return err
	}
	item.UnitCost = avg
	return nil
}

package ledger

import (
	"context"
	"fmt"

	"go-makerstock/internal/model"
	"go-makerstock/internal/unit"
)

// applyCostOverride sets the item's unit cost directly and records a
// zero-delta event with the old and new values. No lot is touched.
func (e *Engine) applyCostOverride(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, p AdjustParams) (*outcome, error) {
	if p.CostOverride == nil {
		return nil, ErrCostRequired
	}
	oldCost := item.UnitCost
	newCost := *p.CostOverride

	if err := tx.Items().SetUnitCost(ctx, scope, item.ID, newCost); err != nil {
		return nil, err
	}
	item.UnitCost = newCost

	ev := e.newEvent(scope, item, ChangeCostOverride, 0, newCost, nil, p)
	ev.Notes = joinNotes(p.Notes, fmt.Sprintf("unit cost %s -> %s", oldCost.String(), newCost.String()))
	if err := tx.Events().Append(ctx, scope, &ev); err != nil {
		return nil, err
	}

	return &outcome{
		delta:   0,
		events:  []model.LedgerEvent{ev},
		message: fmt.Sprintf("unit cost overridden: %s -> %s", oldCost.String(), newCost.String()),
	}, nil
}

// applyUnitConversion verifies the requested unit converts into the item's
// canonical unit and logs an informational zero-delta event. It exists purely
// to surface conversion problems without risking stock corruption.
func (e *Engine) applyUnitConversion(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, p AdjustParams) (*outcome, error) {
	from := p.Unit
	if from == "" {
		from = item.Unit
	}
	converted, err := unit.Convert(1, from, item.Unit, item.Density)
	if err != nil {
		return nil, &ConversionError{ItemID: item.ID, From: from, To: item.Unit, Cause: err}
	}

	ev := e.newEvent(scope, item, ChangeUnitConversion, 0, item.UnitCost, nil, p)
	ev.Notes = joinNotes(p.Notes, fmt.Sprintf("1 %s = %g %s", from, converted, item.Unit))
	if err := tx.Events().Append(ctx, scope, &ev); err != nil {
		return nil, err
	}

	return &outcome{
		delta:   0,
		events:  []model.LedgerEvent{ev},
		message: fmt.Sprintf("1 %s converts to %g %s", from, converted, item.Unit),
	}, nil
}

func joinNotes(notes, detail string) string {
	if notes == "" {
		return detail
	}
	return notes + "; " + detail
}

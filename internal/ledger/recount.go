package ledger

import (
	"context"
	"fmt"

	"go-makerstock/internal/model"
)

// applyRecount reconciles item + lots to an absolute target. The delta is
// computed against the current FIFO total (the sum of active lot remainders),
// not the item's possibly-desynced authoritative quantity. That is how a
// desync self-heals. The delegator sets the item to the target afterwards.
//
// Shrink drains oldest-first like a normal deduction. Growth refills
// under-full lots newest-received-first: recount-driven growth is modeled as
// "the most recently received lot had more than recorded". The reversed order
// is deliberate; changing it changes cost attribution.
func (e *Engine) applyRecount(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, targetBase int64, p AdjustParams) (*outcome, error) {
	active, err := tx.Lots().ListActive(ctx, scope, item.ID)
	if err != nil {
		return nil, err
	}
	fifoTotal := activeTotal(active)
	delta := targetBase - fifoTotal

	switch {
	case delta == 0:
		ev := e.newEvent(scope, item, ChangeRecount, 0, item.UnitCost, nil, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		return &outcome{
			delta:   0,
			events:  []model.LedgerEvent{ev},
			message: fmt.Sprintf("recount verified %s %s; no adjustment needed", fmtQty(targetBase, item.Unit), item.Unit),
		}, nil

	case delta < 0:
		return e.recountShrink(ctx, tx, scope, item, active, -delta, targetBase, p)

	default:
		return e.recountGrow(ctx, tx, scope, item, delta, targetBase, p)
	}
}

// recountShrink drains |delta| oldest-first. Every event carries the recount
// change type (distinguishing it from a sale/use deduction) and references
// the specific lot it debited.
func (e *Engine) recountShrink(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, active []model.InventoryLot, shrink int64, targetBase int64, p AdjustParams) (*outcome, error) {
	needed := shrink
	var events []model.LedgerEvent

	for i := range active {
		if needed <= 0 {
			break
		}
		lot := &active[i]
		take := min64(lot.RemainingBase, needed)
		if take <= 0 {
			continue
		}
		lot.RemainingBase -= take
		if err := tx.Lots().Update(ctx, scope, lot); err != nil {
			return nil, err
		}
		ev := e.newEvent(scope, item, ChangeRecount, -take, lot.UnitCost, lot, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
		needed -= take
	}

	return &outcome{
		delta:  -shrink,
		events: events,
		message: fmt.Sprintf("recounted down to %s %s (-%s)",
			fmtQty(targetBase, item.Unit), item.Unit, fmtQty(shrink, item.Unit)),
	}, nil
}

// recountGrow refills under-full lots newest-received-first up to each lot's
// original size; any remainder lands in one new overflow lot.
func (e *Engine) recountGrow(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, grow int64, targetBase int64, p AdjustParams) (*outcome, error) {
	refillable, err := tx.Lots().ListRefillable(ctx, scope, item.ID)
	if err != nil {
		return nil, err
	}

	remaining := grow
	var events []model.LedgerEvent

	for i := range refillable {
		if remaining <= 0 {
			break
		}
		lot := &refillable[i]
		credit := min64(lot.RefillCapacity(), remaining)
		if credit <= 0 {
			continue
		}
		lot.RemainingBase += credit
		if err := tx.Lots().Update(ctx, scope, lot); err != nil {
			return nil, err
		}
		ev := e.newEvent(scope, item, ChangeRecount, credit, lot.UnitCost, lot, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
		remaining -= credit
	}

	if remaining > 0 {
		_, ev, err := e.createLot(ctx, tx, scope, item, remaining, ChangeRecount, p)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}

	return &outcome{
		delta:  grow,
		events: events,
		message: fmt.Sprintf("recounted up to %s %s (+%s)",
			fmtQty(targetBase, item.Unit), item.Unit, fmtQty(grow, item.Unit)),
	}, nil
}

package ledger

import (
	"context"
	"fmt"

	"go-makerstock/internal/model"
)

// applyDeductive drains lots oldest-received-first until the requested
// quantity is exhausted, one ledger event per lot touched. The availability
// check happens before any mutation, so an insufficient request leaves every
// lot untouched.
//
// For untracked ("infinite") items the walk and event logging still happen
// for the audit trail, but the reported delta is forced to zero and a
// shortfall never fails the call.
func (e *Engine) applyDeductive(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, op DeductiveOp, qtyBase int64, tracked bool, p AdjustParams) (*outcome, error) {
	lots, err := tx.Lots().ListActive(ctx, scope, item.ID)
	if err != nil {
		return nil, err
	}

	available := activeTotal(lots)
	if tracked && available < qtyBase {
		return nil, &InsufficientInventoryError{
			ItemID:        item.ID,
			AvailableBase: available,
			RequestedBase: qtyBase,
			Unit:          item.Unit,
		}
	}

	needed := qtyBase
	var events []model.LedgerEvent
	touched := 0

	for i := range lots {
		if needed <= 0 {
			break
		}
		lot := &lots[i]
		take := min64(lot.RemainingBase, needed)
		if take <= 0 {
			continue
		}
		lot.RemainingBase -= take
		if err := tx.Lots().Update(ctx, scope, lot); err != nil {
			return nil, err
		}
		// Tagged with the original change type so the trail shows why stock
		// left (sale vs spoil vs reserved).
		ev := e.newEvent(scope, item, op.Change, -take, lot.UnitCost, lot, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
		needed -= take
		touched++
	}

	// Untracked items may run out of real lots; the unfulfilled remainder is
	// still logged (no lot reference) so usage history stays complete.
	if needed > 0 {
		ev := e.newEvent(scope, item, op.Change, -needed, item.UnitCost, nil, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	delta := -qtyBase
	if !tracked {
		delta = 0
	}

	return &outcome{
		delta:  delta,
		events: events,
		message: fmt.Sprintf("deducted %s %s across %d lots (%s)",
			fmtQty(qtyBase, item.Unit), item.Unit, touched, op.Change),
	}, nil
}

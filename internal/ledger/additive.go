package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"go-makerstock/internal/model"
	"go-makerstock/internal/unit"
)

// applyAdditive handles both additive paths: lot creation (restock, manual
// addition, finished batch, initial stock) and credit-back (returns, refunds,
// reservation release). It returns the positive delta; applying it to the
// item is the delegator's job.
func (e *Engine) applyAdditive(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, op AdditiveOp, qtyBase int64, effective ChangeType, p AdjustParams) (*outcome, error) {
	if op.Creating {
		lot, ev, err := e.createLot(ctx, tx, scope, item, qtyBase, effective, p)
		if err != nil {
			return nil, err
		}
		return &outcome{
			delta:   qtyBase,
			events:  []model.LedgerEvent{*ev},
			message: fmt.Sprintf("added %s %s into new lot %s", fmtQty(qtyBase, item.Unit), item.Unit, lot.Code),
		}, nil
	}
	return e.creditBack(ctx, tx, scope, item, qtyBase, effective, p)
}

// creditBack walks lots oldest-received-first and refills each under-full lot
// up to its original size before moving on. Whatever existing lots cannot
// absorb lands in a brand-new overflow lot. Refill-before-overflow preserves
// FIFO cost attribution for returned stock.
func (e *Engine) creditBack(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, qtyBase int64, effective ChangeType, p AdjustParams) (*outcome, error) {
	lots, err := tx.Lots().ListByItem(ctx, scope, item.ID)
	if err != nil {
		return nil, err
	}

	remaining := qtyBase
	var events []model.LedgerEvent
	credited := 0

	for i := range lots {
		if remaining <= 0 {
			break
		}
		lot := &lots[i]
		capacity := lot.RefillCapacity()
		if capacity <= 0 {
			continue
		}
		credit := min64(capacity, remaining)
		lot.RemainingBase += credit
		if err := tx.Lots().Update(ctx, scope, lot); err != nil {
			return nil, err
		}
		ev := e.newEvent(scope, item, effective, credit, lot.UnitCost, lot, p)
		if err := tx.Events().Append(ctx, scope, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
		remaining -= credit
		credited++
	}

	if remaining > 0 {
		lot, ev, err := e.createLot(ctx, tx, scope, item, remaining, effective, p)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
		return &outcome{
			delta:  qtyBase,
			events: events,
			message: fmt.Sprintf("credited %s %s back (%d lots refilled, overflow lot %s)",
				fmtQty(qtyBase, item.Unit), item.Unit, credited, lot.Code),
		}, nil
	}

	return &outcome{
		delta:   qtyBase,
		events:  events,
		message: fmt.Sprintf("credited %s %s back across %d lots", fmtQty(qtyBase, item.Unit), item.Unit, credited),
	}, nil
}

// createLot creates exactly one new lot with remaining == original and the
// ledger event that shares its code. Perishability is inherited from the item
// unless an explicit expiration override is supplied.
func (e *Engine) createLot(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem, qtyBase int64, effective ChangeType, p AdjustParams) (*model.InventoryLot, *model.LedgerEvent, error) {
	now := e.now()

	cost := item.UnitCost
	if p.CostOverride != nil {
		cost = *p.CostOverride
	}

	lot := &model.InventoryLot{
		OrganizationID: scope.OrgID,
		ItemID:         item.ID,
		Code:           newLotCode(now),
		RemainingBase:  qtyBase,
		OriginalBase:   qtyBase,
		Unit:           item.Unit,
		UnitCost:       cost,
		ReceivedAt:     now,
		SourceType:     string(effective),
		BatchID:        p.BatchID,
	}
	lot.CreatedBy = scope.ActorID

	switch {
	case p.CustomExpiration != nil:
		lot.ExpiresAt = p.CustomExpiration
	case item.Perishable:
		shelf := item.ShelfLifeDays
		if p.CustomShelfLifeDays != nil {
			shelf = *p.CustomShelfLifeDays
		}
		if shelf > 0 {
			expires := now.AddDate(0, 0, shelf)
			lot.ExpiresAt = &expires
			lot.ShelfLifeDays = &shelf
		}
	}

	if err := tx.Lots().Create(ctx, scope, lot); err != nil {
		return nil, nil, err
	}

	ev := e.newEvent(scope, item, effective, qtyBase, cost, lot, p)
	if err := tx.Events().Append(ctx, scope, &ev); err != nil {
		return nil, nil, err
	}
	return lot, &ev, nil
}

// newEvent builds one ledger event row. The unit cost recorded is the cost of
// the lot the event touched, not the item's moving average, so the audit
// trail shows which lot's cost was attributed.
func (e *Engine) newEvent(scope Scope, item *model.InventoryItem, change ChangeType, deltaBase int64, cost decimal.Decimal, lot *model.InventoryLot, p AdjustParams) model.LedgerEvent {
	ev := model.LedgerEvent{
		OrganizationID: scope.OrgID,
		ItemID:         item.ID,
		ChangeType:     string(change),
		DeltaBase:      deltaBase,
		Unit:           item.Unit,
		UnitCost:       cost,
		BatchID:        p.BatchID,
		Notes:          p.Notes,
		ActorID:        scope.ActorID,
		Customer:       p.Customer,
		SalePrice:      p.SalePrice,
		OrderID:        p.OrderID,
	}
	ev.CreatedBy = scope.ActorID
	if lot != nil {
		id := lot.ID
		ev.LotID = &id
		ev.LotCode = lot.Code
	}
	return ev
}

func fmtQty(base int64, unitName string) string {
	q, err := unit.FromBase(base, unitName)
	if err != nil {
		return fmt.Sprintf("%d(base)", base)
	}
	return decimal.NewFromFloat(q).String()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

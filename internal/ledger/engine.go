package ledger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/model"
	"go-makerstock/internal/unit"
)

// AdjustParams is the single public adjustment request. Quantity is always a
// positive magnitude for additive/deductive operations; the change type's
// family implies the sign. TargetQuantity is required for (and only read by)
// recount.
type AdjustParams struct {
	ItemID     uuid.UUID
	ChangeType ChangeType
	Quantity   float64

	// Unit defaults to the item's canonical unit. A different unit is
	// converted before any handler runs; conversion failure aborts the call.
	Unit  string
	Notes string

	CostOverride        *decimal.Decimal
	CustomExpiration    *time.Time
	CustomShelfLifeDays *int

	// Sale metadata, recorded on sale events.
	Customer  string
	SalePrice *decimal.Decimal
	OrderID   string

	TargetQuantity *float64
	BatchID        *uuid.UUID
}

// Result reports one committed adjustment.
type Result struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	ChangeType ChangeType         `json:"change_type"` // effective type after first-entry resolution
	DeltaBase  int64              `json:"delta_base"`
	Before     float64            `json:"quantity_before"`
	After      float64            `json:"quantity_after"`
	Events     []model.LedgerEvent `json:"-"`
}

// Engine is the central delegator: the only code path that mutates an item's
// authoritative quantity. Every call runs inside one transaction with a row
// lock on the item held from the first read to commit.
type Engine struct {
	store Store
	now   func() time.Time

	// policy answers "does this item track quantities" (the infinite-item
	// short-circuit). Defaults to the item's own Tracked flag.
	policy func(item *model.InventoryItem) bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPolicy overrides the quantity-tracking policy.
func WithPolicy(policy func(item *model.InventoryItem) bool) Option {
	return func(e *Engine) { e.policy = policy }
}

// NewEngine builds an engine over the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		policy: func(item *model.InventoryItem) bool { return item.Tracked },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adjust runs one adjustment in its own transaction. Nothing is partially
// applied: any handler or validation failure rolls the whole thing back.
func (e *Engine) Adjust(ctx context.Context, scope Scope, p AdjustParams) (*Result, error) {
	var res *Result
	err := e.store.Transact(ctx, func(tx Store) error {
		r, err := e.AdjustWithin(ctx, tx, scope, p)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AdjustWithin runs one adjustment inside a caller-owned transaction, for
// callers composing several adjustments atomically (batch completion). FIFO
// validation still happens before returning; the caller owns the final
// commit.
func (e *Engine) AdjustWithin(ctx context.Context, tx Store, scope Scope, p AdjustParams) (*Result, error) {
	// Lock the item row first. Two concurrent deductions must not both pass
	// the availability check against a stale lot total.
	item, err := tx.Items().GetForUpdate(ctx, scope, p.ItemID)
	if err != nil {
		return nil, err
	}

	// 1. Resolve the effective operation. The first-ever positive entry is
	// upgraded to initial_stock so every item's history begins with a priming
	// lot. Negative-family first entries are not upgraded.
	effective := p.ChangeType
	op, err := Classify(effective)
	if err != nil {
		return nil, err
	}
	if !isSpecial(op) && p.Quantity > 0 && effective != ChangeInitialStock {
		n, err := tx.Events().CountByItem(ctx, scope, item.ID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			if _, additive := op.(AdditiveOp); additive {
				effective = ChangeInitialStock
				if op, err = Classify(effective); err != nil {
					return nil, err
				}
			}
		}
	}

	// 2. Normalize units before any handler runs.
	qtyBase, err := e.normalize(item, p.Quantity, p.Unit)
	if err != nil {
		return nil, err
	}

	before := item.QuantityBase
	tracked := e.policy(item)

	// 3. Dispatch. The switch is exhaustive over the closed Operation set.
	var out *outcome
	newBase := before
	absolute := false

	switch o := op.(type) {
	case AdditiveOp:
		out, err = e.applyAdditive(ctx, tx, scope, item, o, qtyBase, effective, p)
	case DeductiveOp:
		out, err = e.applyDeductive(ctx, tx, scope, item, o, qtyBase, tracked, p)
	case RecountOp:
		// Recount is an absolute set; letting it through would be the one
		// door around the untracked never-change-quantity rule.
		if !tracked {
			return nil, ErrRecountUntracked
		}
		if p.TargetQuantity == nil {
			return nil, ErrTargetRequired
		}
		var targetBase int64
		targetBase, err = e.normalize(item, *p.TargetQuantity, p.Unit)
		if err == nil {
			out, err = e.applyRecount(ctx, tx, scope, item, targetBase, p)
			newBase = targetBase // recount is an absolute set, not a delta
			absolute = true
		}
	case CostOverrideOp:
		out, err = e.applyCostOverride(ctx, tx, scope, item, p)
	case UnitConversionOp:
		out, err = e.applyUnitConversion(ctx, tx, scope, item, p)
	default:
		return nil, fmt.Errorf("%w: unhandled operation %T", ErrUnknownOperation, op)
	}
	if err != nil {
		return nil, err
	}

	// Infinite items log history but never change quantity.
	if !tracked && !absolute {
		out.delta = 0
	}

	// 4. Apply the delta. This is the only place in the system that writes
	// the authoritative quantity.
	if !absolute {
		newBase = before + out.delta
	}
	if newBase != before || absolute {
		if err := tx.Items().SetQuantityBase(ctx, scope, item.ID, newBase); err != nil {
			return nil, err
		}
		item.QuantityBase = newBase
	}

	// 5. Validate FIFO sync before the transaction can commit.
	report, err := e.validateSync(ctx, tx, scope, item)
	if err != nil {
		return nil, err
	}
	if !report.Valid {
		serr := &FifoSyncError{ItemID: item.ID, QuantityBase: report.QuantityBase, FifoTotalBase: report.FifoTotalBase}
		log.Printf("ERROR: %v", serr)
		return nil, serr
	}

	// 6. Recompute the moving-average cost (cost override already wrote it).
	if _, isOverride := op.(CostOverrideOp); !isOverride {
		if err := e.recomputeCost(ctx, tx, scope, item); err != nil {
			return nil, err
		}
	}

	beforeDisplay, _ := unit.FromBase(before, item.Unit)
	afterDisplay, _ := unit.FromBase(newBase, item.Unit)
	return &Result{
		Success:    true,
		Message:    out.message,
		ChangeType: effective,
		DeltaBase:  out.delta,
		Before:     beforeDisplay,
		After:      afterDisplay,
		Events:     out.events,
	}, nil
}

// normalize converts a display quantity (possibly in a foreign unit) into the
// item's canonical base quantity.
func (e *Engine) normalize(item *model.InventoryItem, quantity float64, unitName string) (int64, error) {
	qty := quantity
	if unitName != "" && unitName != item.Unit {
		converted, err := unit.Convert(quantity, unitName, item.Unit, item.Density)
		if err != nil {
			return 0, &ConversionError{ItemID: item.ID, From: unitName, To: item.Unit, Cause: err}
		}
		qty = converted
	}
	base, err := unit.ToBase(qty, item.Unit)
	if err != nil {
		return 0, &ConversionError{ItemID: item.ID, From: item.Unit, To: item.Unit, Cause: err}
	}
	return base, nil
}

func isSpecial(op Operation) bool {
	switch op.(type) {
	case RecountOp, CostOverrideOp, UnitConversionOp:
		return true
	}
	return false
}

// outcome is what a handler reports back to the delegator. Handlers never
// touch the item's quantity; they only produce a delta.
type outcome struct {
	delta   int64
	events  []model.LedgerEvent
	message string
}

// newLotCode builds the human-facing lot code shared by the lot and the
// ledger event that created it.
func newLotCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("LOT-%s-%s", now.Format("20060102"), suffix)
}

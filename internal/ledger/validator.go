package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"go-makerstock/internal/model"
)

// SyncReport is the FIFO-sync validator's verdict for one item.
type SyncReport struct {
	Valid         bool   `json:"valid"`
	QuantityBase  int64  `json:"quantity_base"`
	FifoTotalBase int64  `json:"fifo_total_base"`
	Message       string `json:"message"`
}

// validateSync compares the item's authoritative quantity against the sum of
// its active lots' remainders. It runs after a handler's mutations and before
// the enclosing transaction commits; a mismatch must roll the whole operation
// back.
func (e *Engine) validateSync(ctx context.Context, tx Store, scope Scope, item *model.InventoryItem) (*SyncReport, error) {
	// Untracked items' quantity is definitionally whatever it is; lots are
	// not the source of truth for infinite stock.
	if !e.policy(item) {
		return &SyncReport{Valid: true, QuantityBase: item.QuantityBase, Message: "item is untracked"}, nil
	}

	lots, err := tx.Lots().ListActive(ctx, scope, item.ID)
	if err != nil {
		return nil, err
	}
	total := activeTotal(lots)

	report := &SyncReport{
		QuantityBase:  item.QuantityBase,
		FifoTotalBase: total,
	}
	if total == item.QuantityBase {
		report.Valid = true
		report.Message = "in sync"
		return report, nil
	}

	diff := item.QuantityBase - total
	if diff < 0 {
		diff = -diff
	}
	report.Message = fmt.Sprintf("item quantity %d != lot total %d (diff %d)", item.QuantityBase, total, diff)
	return report, nil
}

// ValidateSync is the read-only sync check exposed to callers (admin tooling,
// the /sync endpoint). It runs in its own transaction and never mutates.
func (e *Engine) ValidateSync(ctx context.Context, scope Scope, itemID uuid.UUID) (*SyncReport, error) {
	var report *SyncReport
	err := e.store.Transact(ctx, func(tx Store) error {
		item, err := tx.Items().GetForUpdate(ctx, scope, itemID)
		if err != nil {
			return err
		}
		report, err = e.validateSync(ctx, tx, scope, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// activeTotal sums the remaining base quantity across active lots.
func activeTotal(lots []model.InventoryLot) int64 {
	var total int64
	for i := range lots {
		total += lots[i].RemainingBase
	}
	return total
}

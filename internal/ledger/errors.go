package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors. Use with errors.Is().
var (
	// ErrItemNotFound is returned when the item id doesn't resolve inside the
	// caller's organization. Cross-tenant access looks identical to a missing
	// row on purpose.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrLotNotFound is returned when a lot id doesn't resolve inside the
	// caller's organization.
	ErrLotNotFound = errors.New("inventory lot not found")

	// ErrUnknownOperation is returned for a change type outside the registry.
	// Programmer error; never retried.
	ErrUnknownOperation = errors.New("unknown operation type")

	// ErrConversion is returned when the requested unit is incompatible with
	// the item's canonical unit (or density is missing).
	ErrConversion = errors.New("unit conversion failed")

	// ErrInsufficientInventory is returned when a deduction exceeds the total
	// available lot stock. No lot is mutated when this is returned.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrFifoSync is returned when post-handler validation finds the item
	// quantity out of sync with the lot total. Always rolls back; indicates a
	// broken invariant, not a user error.
	ErrFifoSync = errors.New("item quantity out of sync with lot total")

	// ErrTargetRequired is returned when a recount is requested without a
	// target quantity.
	ErrTargetRequired = errors.New("recount requires a target quantity")

	// ErrCostRequired is returned when a cost override is requested without a
	// new cost.
	ErrCostRequired = errors.New("cost override requires a cost value")

	// ErrRecountUntracked is returned when a recount targets an untracked
	// item. An untracked quantity never changes, so there is nothing to
	// reconcile against.
	ErrRecountUntracked = errors.New("recount not applicable to an untracked item")
)

// InsufficientInventoryError carries the shortfall details.
type InsufficientInventoryError struct {
	ItemID        uuid.UUID
	AvailableBase int64
	RequestedBase int64
	Unit          string
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %s: available %d base units, requested %d",
		e.ItemID, e.AvailableBase, e.RequestedBase)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}

// FifoSyncError carries both quantities and their difference so the mismatch
// can be logged and investigated.
type FifoSyncError struct {
	ItemID        uuid.UUID
	QuantityBase  int64
	FifoTotalBase int64
}

func (e *FifoSyncError) Error() string {
	return fmt.Sprintf("fifo sync failure for item %s: item quantity %d, lot total %d, diff %d",
		e.ItemID, e.QuantityBase, e.FifoTotalBase, e.Diff())
}

func (e *FifoSyncError) Diff() int64 {
	d := e.QuantityBase - e.FifoTotalBase
	if d < 0 {
		return -d
	}
	return d
}

func (e *FifoSyncError) Unwrap() error {
	return ErrFifoSync
}

// ConversionError wraps a unit-level conversion failure with the item it was
// attempted on.
type ConversionError struct {
	ItemID uuid.UUID
	From   string
	To     string
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s for item %s: %v", e.From, e.To, e.ItemID, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return ErrConversion
}

// IsClientError returns true if the error is something the caller can correct
// (as opposed to an internal consistency failure).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrConversion) ||
		errors.Is(err, ErrTargetRequired) ||
		errors.Is(err, ErrCostRequired) ||
		errors.Is(err, ErrRecountUntracked) ||
		errors.Is(err, ErrUnknownOperation)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrLotNotFound)
}

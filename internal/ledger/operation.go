package ledger

import "fmt"

// ChangeType labels why stock moved. Strings exist only at the API boundary;
// everything past Classify works with the closed Operation set below.
type ChangeType string

const (
	// additive, lot creation
	ChangeInitialStock   ChangeType = "initial_stock"
	ChangeRestock        ChangeType = "restock"
	ChangeManualAddition ChangeType = "manual_addition"
	ChangeFinishedBatch  ChangeType = "finished_batch"

	// additive, lot crediting
	ChangeReturned           ChangeType = "returned"
	ChangeRefunded           ChangeType = "refunded"
	ChangeReleaseReservation ChangeType = "release_reservation"

	// deductive, consumption
	ChangeUse    ChangeType = "use"
	ChangeSale   ChangeType = "sale"
	ChangeSample ChangeType = "sample"
	ChangeTester ChangeType = "tester"
	ChangeGift   ChangeType = "gift"
	ChangeBatch  ChangeType = "batch"

	// deductive, disposal
	ChangeSpoil       ChangeType = "spoil"
	ChangeTrash       ChangeType = "trash"
	ChangeExpired     ChangeType = "expired"
	ChangeDamaged     ChangeType = "damaged"
	ChangeQualityFail ChangeType = "quality_fail"

	// deductive, reservation
	ChangeReserved ChangeType = "reserved"

	// special
	ChangeRecount        ChangeType = "recount"
	ChangeCostOverride   ChangeType = "cost_override"
	ChangeUnitConversion ChangeType = "unit_conversion"
)

// DeductGroup distinguishes why stock left, for the audit trail.
type DeductGroup string

const (
	GroupConsumption DeductGroup = "consumption"
	GroupDisposal    DeductGroup = "disposal"
	GroupReservation DeductGroup = "reservation"
)

// Operation is the closed set of things the delegator can dispatch on.
// Adding a change type means adding it to Classify; the type switch in the
// engine is exhaustive over these five variants.
type Operation interface {
	isOperation()
}

// AdditiveOp creates a new lot (Creating=true) or credits stock back into
// existing lots FIFO-first (Creating=false).
type AdditiveOp struct {
	Change   ChangeType
	Creating bool
}

// DeductiveOp drains lots oldest-first.
type DeductiveOp struct {
	Change ChangeType
	Group  DeductGroup
}

// RecountOp reconciles item + lots to an absolute target quantity.
type RecountOp struct{}

// CostOverrideOp sets the item's unit cost without touching quantity.
type CostOverrideOp struct{}

// UnitConversionOp verifies convertibility and logs an informational event.
type UnitConversionOp struct{}

func (AdditiveOp) isOperation()       {}
func (DeductiveOp) isOperation()      {}
func (RecountOp) isOperation()        {}
func (CostOverrideOp) isOperation()   {}
func (UnitConversionOp) isOperation() {}

// Classify maps a change type to its operation. An unrecognized change type
// fails fast; nothing ever defaults to a guessed family.
func Classify(ct ChangeType) (Operation, error) {
	switch ct {
	case ChangeInitialStock, ChangeRestock, ChangeManualAddition, ChangeFinishedBatch:
		return AdditiveOp{Change: ct, Creating: true}, nil
	case ChangeReturned, ChangeRefunded, ChangeReleaseReservation:
		return AdditiveOp{Change: ct, Creating: false}, nil
	case ChangeUse, ChangeSale, ChangeSample, ChangeTester, ChangeGift, ChangeBatch:
		return DeductiveOp{Change: ct, Group: GroupConsumption}, nil
	case ChangeSpoil, ChangeTrash, ChangeExpired, ChangeDamaged, ChangeQualityFail:
		return DeductiveOp{Change: ct, Group: GroupDisposal}, nil
	case ChangeReserved:
		return DeductiveOp{Change: ct, Group: GroupReservation}, nil
	case ChangeRecount:
		return RecountOp{}, nil
	case ChangeCostOverride:
		return CostOverrideOp{}, nil
	case ChangeUnitConversion:
		return UnitConversionOp{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, ct)
}

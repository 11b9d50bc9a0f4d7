package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAdditiveCreating(t *testing.T) {
	for _, ct := range []ChangeType{ChangeInitialStock, ChangeRestock, ChangeManualAddition, ChangeFinishedBatch} {
		op, err := Classify(ct)
		require.NoError(t, err, ct)
		add, ok := op.(AdditiveOp)
		require.True(t, ok, ct)
		assert.True(t, add.Creating, ct)
	}
}

func TestClassifyAdditiveCrediting(t *testing.T) {
	for _, ct := range []ChangeType{ChangeReturned, ChangeRefunded, ChangeReleaseReservation} {
		op, err := Classify(ct)
		require.NoError(t, err, ct)
		add, ok := op.(AdditiveOp)
		require.True(t, ok, ct)
		assert.False(t, add.Creating, ct)
	}
}

func TestClassifyDeductiveGroups(t *testing.T) {
	tests := []struct {
		ct    ChangeType
		group DeductGroup
	}{
		{ChangeUse, GroupConsumption},
		{ChangeSale, GroupConsumption},
		{ChangeSample, GroupConsumption},
		{ChangeTester, GroupConsumption},
		{ChangeGift, GroupConsumption},
		{ChangeBatch, GroupConsumption},
		{ChangeSpoil, GroupDisposal},
		{ChangeTrash, GroupDisposal},
		{ChangeExpired, GroupDisposal},
		{ChangeDamaged, GroupDisposal},
		{ChangeQualityFail, GroupDisposal},
		{ChangeReserved, GroupReservation},
	}
	for _, tt := range tests {
		op, err := Classify(tt.ct)
		require.NoError(t, err, tt.ct)
		ded, ok := op.(DeductiveOp)
		require.True(t, ok, tt.ct)
		assert.Equal(t, tt.group, ded.Group, tt.ct)
	}
}

func TestClassifySpecial(t *testing.T) {
	op, err := Classify(ChangeRecount)
	require.NoError(t, err)
	assert.IsType(t, RecountOp{}, op)

	op, err = Classify(ChangeCostOverride)
	require.NoError(t, err)
	assert.IsType(t, CostOverrideOp{}, op)

	op, err = Classify(ChangeUnitConversion)
	require.NoError(t, err)
	assert.IsType(t, UnitConversionOp{}, op)
}

func TestClassifyUnknownFailsFast(t *testing.T) {
	_, err := Classify(ChangeType("teleport"))
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = Classify(ChangeType(""))
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

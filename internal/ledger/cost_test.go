package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-makerstock/internal/model"
)

func lotWith(remaining int64, cost string) model.InventoryLot {
	return model.InventoryLot{
		RemainingBase: remaining,
		UnitCost:      decimal.RequireFromString(cost),
	}
}

func TestWeightedAverageCost(t *testing.T) {
	lots := []model.InventoryLot{
		lotWith(100, "2"),
		lotWith(100, "4"),
	}
	avg, ok := weightedAverageCost(lots)
	assert.True(t, ok)
	assert.True(t, avg.Equal(decimal.RequireFromString("3")), "got %s", avg)
}

func TestWeightedAverageCostSkipsDrainedLots(t *testing.T) {
	lots := []model.InventoryLot{
		lotWith(0, "100"), // drained, must not weigh in
		lotWith(50, "2"),
	}
	avg, ok := weightedAverageCost(lots)
	assert.True(t, ok)
	assert.True(t, avg.Equal(decimal.RequireFromString("2")), "got %s", avg)
}

func TestWeightedAverageCostUneven(t *testing.T) {
	lots := []model.InventoryLot{
		lotWith(300, "1.5"),
		lotWith(100, "3.5"),
	}
	// (300*1.5 + 100*3.5) / 400 = 2
	avg, ok := weightedAverageCost(lots)
	assert.True(t, ok)
	assert.True(t, avg.Equal(decimal.RequireFromString("2")), "got %s", avg)
}

func TestWeightedAverageCostNoStock(t *testing.T) {
	_, ok := weightedAverageCost(nil)
	assert.False(t, ok)

	_, ok = weightedAverageCost([]model.InventoryLot{lotWith(0, "5")})
	assert.False(t, ok)
}

package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-makerstock/internal/model"
	"go-makerstock/internal/repository"
)

// DashboardStats is the at-a-glance summary for one organization.
type DashboardStats struct {
	TotalItems     int             `json:"total_items"`
	TrackedItems   int             `json:"tracked_items"`
	LowStockItems  int             `json:"low_stock_items"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

// LowStockItem is one item at or below its threshold.
type LowStockItem struct {
	model.ItemResponse
	Shortfall float64 `json:"shortfall"`
}

type DashboardService interface {
	GetStats(orgID uuid.UUID) (*DashboardStats, error)
	GetLowStock(orgID uuid.UUID) ([]LowStockItem, error)
	GetStockMovement(orgID uuid.UUID, days int) ([]repository.StockMovementData, error)
}

type dashboardService struct {
	items  repository.ItemRepository
	events repository.EventRepository
}

func NewDashboardService(items repository.ItemRepository, events repository.EventRepository) DashboardService {
	return &dashboardService{items: items, events: events}
}

func (s *dashboardService) GetStats(orgID uuid.UUID) (*DashboardStats, error) {
	items, err := s.items.FindAll(orgID)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{TotalValuation: decimal.Zero}
	for i := range items {
		item := &items[i]
		stats.TotalItems++
		if !item.Tracked {
			continue
		}
		stats.TrackedItems++
		qty := item.DisplayQuantity()
		if item.LowStockThreshold > 0 && qty <= item.LowStockThreshold {
			stats.LowStockItems++
		}
		// Valuation = on-hand quantity x moving-average cost.
		stats.TotalValuation = stats.TotalValuation.Add(
			item.UnitCost.Mul(decimal.NewFromFloat(qty)),
		)
	}
	stats.TotalValuation = stats.TotalValuation.Round(4)
	return stats, nil
}

func (s *dashboardService) GetLowStock(orgID uuid.UUID) ([]LowStockItem, error) {
	items, err := s.items.FindAll(orgID)
	if err != nil {
		return nil, err
	}

	var low []LowStockItem
	for i := range items {
		item := &items[i]
		if !item.Tracked || item.LowStockThreshold <= 0 {
			continue
		}
		qty := item.DisplayQuantity()
		if qty <= item.LowStockThreshold {
			low = append(low, LowStockItem{
				ItemResponse: item.ToResponse(),
				Shortfall:    item.LowStockThreshold - qty,
			})
		}
	}
	return low, nil
}

func (s *dashboardService) GetStockMovement(orgID uuid.UUID, days int) ([]repository.StockMovementData, error) {
	if days <= 0 || days > 90 {
		days = 7
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return s.events.GetStockMovement(orgID, start, end)
}

package repository

import (
	"time"

	"go-makerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementData is one day of aggregated in/out flow for the dashboard
// chart. Sums are in base units.
type StockMovementData struct {
	Date         string `json:"date"`
	InboundBase  int64  `json:"inbound_base"`
	OutboundBase int64  `json:"outbound_base"`
}

// EventRepository is the read side of the ledger history.
type EventRepository interface {
	FindByItem(orgID, itemID uuid.UUID, limit int) ([]model.LedgerEvent, error)
	GetStockMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error)
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db}
}

func (r *eventRepo) FindByItem(orgID, itemID uuid.UUID, limit int) ([]model.LedgerEvent, error) {
	q := r.db.Where("item_id = ? AND organization_id = ?", itemID, orgID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var events []model.LedgerEvent
	err := q.Find(&events).Error
	return events, err
}

func (r *eventRepo) GetStockMovement(orgID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.Model(&model.LedgerEvent{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN delta_base > 0 THEN delta_base ELSE 0 END), 0) as inbound_base,
			COALESCE(SUM(CASE WHEN delta_base < 0 THEN -delta_base ELSE 0 END), 0) as outbound_base
		`).
		Where("organization_id = ? AND created_at BETWEEN ? AND ?", orgID, startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.InboundBase, &data.OutboundBase); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

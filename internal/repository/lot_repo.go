package repository

import (
	"time"

	"go-makerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotRepository is the read side of lots for API listings.
type LotRepository interface {
	FindByItem(orgID, itemID uuid.UUID) ([]model.InventoryLot, error)
	FindActiveByItem(orgID, itemID uuid.UUID) ([]model.InventoryLot, error)
	// FindExpiring returns active lots expiring within the window, soonest
	// first.
	FindExpiring(orgID uuid.UUID, itemID *uuid.UUID, within time.Duration, now time.Time) ([]model.InventoryLot, error)
}

type lotRepo struct {
	db *gorm.DB
}

func NewLotRepo(db *gorm.DB) LotRepository {
	return &lotRepo{db}
}

func (r *lotRepo) FindByItem(orgID, itemID uuid.UUID) ([]model.InventoryLot, error) {
	var lots []model.InventoryLot
	err := r.db.Where("item_id = ? AND organization_id = ?", itemID, orgID).
		Order("received_at ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *lotRepo) FindActiveByItem(orgID, itemID uuid.UUID) ([]model.InventoryLot, error) {
	var lots []model.InventoryLot
	err := r.db.Where("item_id = ? AND organization_id = ? AND remaining_base > 0", itemID, orgID).
		Order("received_at ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *lotRepo) FindExpiring(orgID uuid.UUID, itemID *uuid.UUID, within time.Duration, now time.Time) ([]model.InventoryLot, error) {
	q := r.db.Where(
		"organization_id = ? AND remaining_base > 0 AND expires_at IS NOT NULL AND expires_at <= ?",
		orgID, now.Add(within),
	)
	if itemID != nil {
		q = q.Where("item_id = ?", *itemID)
	}
	var lots []model.InventoryLot
	err := q.Order("expires_at ASC").Find(&lots).Error
	return lots, err
}

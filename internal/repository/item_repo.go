package repository

import (
	"go-makerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository is the read/metadata side of items. Quantity and cost writes
// go through the ledger store exclusively.
type ItemRepository interface {
	Create(item *model.InventoryItem) error
	FindAll(orgID uuid.UUID) ([]model.InventoryItem, error)
	FindByID(orgID, id uuid.UUID) (*model.InventoryItem, error)
	FindByName(orgID uuid.UUID, name string) (*model.InventoryItem, error)
	UpdateMetadata(item *model.InventoryItem) error
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(item *model.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *itemRepo) FindAll(orgID uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) FindByID(orgID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.First(&item, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByName(orgID uuid.UUID, name string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.First(&item, "name = ? AND organization_id = ?", name, orgID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateMetadata persists descriptive fields only. quantity_base and
// unit_cost are deliberately excluded; the ledger engine owns those.
func (r *itemRepo) UpdateMetadata(item *model.InventoryItem) error {
	return r.db.Model(&model.InventoryItem{}).
		Where("id = ? AND organization_id = ?", item.ID, item.OrganizationID).
		Updates(map[string]interface{}{
			"name":                item.Name,
			"sku":                 item.SKU,
			"low_stock_threshold": item.LowStockThreshold,
			"perishable":          item.Perishable,
			"shelf_life_days":     item.ShelfLifeDays,
			"density":             item.Density,
			"tracked":             item.Tracked,
			"updated_by":          item.UpdatedBy,
		}).Error
}

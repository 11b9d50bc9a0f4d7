package repository

import (
	"go-makerstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(batch *model.ProductionBatch) error
	FindAll(orgID uuid.UUID) ([]model.ProductionBatch, error)
	FindByID(orgID, id uuid.UUID) (*model.ProductionBatch, error)
	Update(batch *model.ProductionBatch) error
}

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db}
}

func (r *batchRepo) Create(batch *model.ProductionBatch) error {
	return r.db.Create(batch).Error
}

func (r *batchRepo) FindAll(orgID uuid.UUID) ([]model.ProductionBatch, error) {
	var batches []model.ProductionBatch
	err := r.db.Where("organization_id = ?", orgID).Order("created_at DESC").Find(&batches).Error
	return batches, err
}

func (r *batchRepo) FindByID(orgID, id uuid.UUID) (*model.ProductionBatch, error) {
	var batch model.ProductionBatch
	err := r.db.First(&batch, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepo) Update(batch *model.ProductionBatch) error {
	return r.db.Save(batch).Error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/model"
	"go-makerstock/internal/repository"
	"go-makerstock/internal/ws"
	"go-makerstock/pkg/validator"
)

var (
	ErrBatchNotFound  = errors.New("production batch not found")
	ErrBatchCompleted = errors.New("production batch already completed")
	ErrBatchEmpty     = errors.New("batch completion needs at least one ingredient or output")
)

// CreateBatchRequest opens a production run.
type CreateBatchRequest struct {
	Code  string `json:"code" validate:"required,min=1,max=40"`
	Notes string `json:"notes" validate:"max=1000"`
}

// BatchLine is one item movement inside a batch completion, expressed in
// display units.
type BatchLine struct {
	ItemID   uuid.UUID `json:"item_id" validate:"uuid_required"`
	Quantity float64   `json:"quantity" validate:"required,gt=0"`
	Unit     string    `json:"unit"`

	// Output lines only.
	UnitCost *float64 `json:"unit_cost" validate:"omitempty,gte=0"`
}

// CompleteBatchRequest closes a run: ingredients are deducted FIFO and the
// finished goods are restocked, all inside one transaction.
type CompleteBatchRequest struct {
	Ingredients []BatchLine `json:"ingredients" validate:"dive"`
	Outputs     []BatchLine `json:"outputs" validate:"dive"`
	Notes       string      `json:"notes" validate:"max=1000"`
}

// CompleteBatchResult summarizes what one completion committed.
type CompleteBatchResult struct {
	Batch       model.ProductionBatch `json:"batch"`
	Ingredients []ledger.Result       `json:"ingredients"`
	Outputs     []ledger.Result       `json:"outputs"`
}

type BatchService interface {
	Create(scope ledger.Scope, req CreateBatchRequest) (*model.ProductionBatch, error)
	List(orgID uuid.UUID) ([]model.ProductionBatch, error)
	Get(orgID, batchID uuid.UUID) (*model.ProductionBatch, error)
	Complete(ctx context.Context, scope ledger.Scope, batchID uuid.UUID, req CompleteBatchRequest) (*CompleteBatchResult, error)
}

type batchService struct {
	batches repository.BatchRepository
	store   ledger.Store
	engine  *ledger.Engine
	hub     *ws.Hub
}

// NewBatchService wires the batch workflow over the shared ledger store so
// completion composes several adjustments into one transaction.
func NewBatchService(batches repository.BatchRepository, store ledger.Store, engine *ledger.Engine, hub *ws.Hub) BatchService {
	return &batchService{batches: batches, store: store, engine: engine, hub: hub}
}

func (s *batchService) Create(scope ledger.Scope, req CreateBatchRequest) (*model.ProductionBatch, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}

	batch := &model.ProductionBatch{
		OrganizationID: scope.OrgID,
		Code:           req.Code,
		Notes:          req.Notes,
	}
	batch.CreatedBy = scope.ActorID
	if err := s.batches.Create(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *batchService) List(orgID uuid.UUID) ([]model.ProductionBatch, error) {
	return s.batches.FindAll(orgID)
}

func (s *batchService) Get(orgID, batchID uuid.UUID) (*model.ProductionBatch, error) {
	batch, err := s.batches.FindByID(orgID, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	return batch, nil
}

// Complete deducts every ingredient and restocks every output atomically. An
// insufficient ingredient rolls the entire completion back, outputs included.
func (s *batchService) Complete(ctx context.Context, scope ledger.Scope, batchID uuid.UUID, req CompleteBatchRequest) (*CompleteBatchResult, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}
	if len(req.Ingredients) == 0 && len(req.Outputs) == 0 {
		return nil, ErrBatchEmpty
	}

	batch, err := s.Get(scope.OrgID, batchID)
	if err != nil {
		return nil, err
	}
	if batch.CompletedAt != nil {
		return nil, ErrBatchCompleted
	}

	result := &CompleteBatchResult{}
	err = s.store.Transact(ctx, func(tx ledger.Store) error {
		for _, line := range req.Ingredients {
			r, err := s.engine.AdjustWithin(ctx, tx, scope, ledger.AdjustParams{
				ItemID:     line.ItemID,
				ChangeType: ledger.ChangeBatch,
				Quantity:   line.Quantity,
				Unit:       line.Unit,
				Notes:      fmt.Sprintf("consumed by batch %s", batch.Code),
				BatchID:    &batch.ID,
			})
			if err != nil {
				return err
			}
			result.Ingredients = append(result.Ingredients, *r)
		}

		for _, line := range req.Outputs {
			params := ledger.AdjustParams{
				ItemID:     line.ItemID,
				ChangeType: ledger.ChangeFinishedBatch,
				Quantity:   line.Quantity,
				Unit:       line.Unit,
				Notes:      fmt.Sprintf("produced by batch %s", batch.Code),
				BatchID:    &batch.ID,
			}
			if line.UnitCost != nil {
				c := decimal.NewFromFloat(*line.UnitCost)
				params.CostOverride = &c
			}
			r, err := s.engine.AdjustWithin(ctx, tx, scope, params)
			if err != nil {
				return err
			}
			result.Outputs = append(result.Outputs, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	batch.CompletedAt = &now
	if req.Notes != "" {
		batch.Notes = req.Notes
	}
	batch.UpdatedBy = scope.ActorID
	if err := s.batches.Update(batch); err != nil {
		return nil, err
	}
	result.Batch = *batch

	s.hub.Publish(ws.Event{
		Type:    "batch_completed",
		Action:  "complete",
		Payload: map[string]interface{}{"batch_id": batch.ID, "code": batch.Code},
		Message: fmt.Sprintf("Batch %s completed", batch.Code),
	})

	return result, nil
}

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
	"go-makerstock/internal/unit"
	"go-makerstock/internal/ws"
	"go-makerstock/pkg/validator"
)

var (
	ErrItemNameTaken = errors.New("an item with this name already exists")
	ErrValidation    = errors.New("validation failed")
)

// CreateItemRequest is the payload for creating an inventory item. An initial
// quantity, when present, is recorded through the ledger engine so the item's
// history starts with a real priming lot.
type CreateItemRequest struct {
	Name              string  `json:"name" validate:"required,min=1,max=255"`
	SKU               string  `json:"sku" validate:"max=50"`
	Unit              string  `json:"unit" validate:"required"`
	InitialQuantity   float64 `json:"initial_quantity" validate:"gte=0"`
	UnitCost          float64 `json:"unit_cost" validate:"gte=0"`
	LowStockThreshold float64 `json:"low_stock_threshold" validate:"gte=0"`
	Perishable        bool    `json:"perishable"`
	ShelfLifeDays     int     `json:"shelf_life_days" validate:"gte=0"`
	Density           float64 `json:"density" validate:"gte=0"`
	Tracked           *bool   `json:"tracked"`
}

// UpdateItemRequest updates descriptive fields only. Quantity and cost are
// ledger-owned and have no place here.
type UpdateItemRequest struct {
	Name              string  `json:"name" validate:"required,min=1,max=255"`
	SKU               string  `json:"sku" validate:"max=50"`
	LowStockThreshold float64 `json:"low_stock_threshold" validate:"gte=0"`
	Perishable        bool    `json:"perishable"`
	ShelfLifeDays     int     `json:"shelf_life_days" validate:"gte=0"`
	Density           float64 `json:"density" validate:"gte=0"`
	Tracked           *bool   `json:"tracked"`
}

// AdjustRequest is the API shape of one stock adjustment.
type AdjustRequest struct {
	ChangeType string  `json:"change_type" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	Unit       string  `json:"unit"`
	Notes      string  `json:"notes" validate:"max=1000"`

	CostOverride        *float64 `json:"cost_override" validate:"omitempty,gte=0"`
	CustomExpiration    *string  `json:"custom_expiration"` // RFC 3339 date
	CustomShelfLifeDays *int     `json:"custom_shelf_life_days" validate:"omitempty,gte=0"`

	Customer  string   `json:"customer" validate:"max=255"`
	SalePrice *float64 `json:"sale_price" validate:"omitempty,gte=0"`
	OrderID   string   `json:"order_id" validate:"max=100"`

	TargetQuantity *float64 `json:"target_quantity" validate:"omitempty,gte=0"`
}

type InventoryService interface {
	CreateItem(ctx context.Context, scope ledger.Scope, req CreateItemRequest) (*model.ItemResponse, error)
	UpdateItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID, req UpdateItemRequest) (*model.ItemResponse, error)
	GetItems(orgID uuid.UUID) ([]model.ItemResponse, error)
	GetItem(orgID, itemID uuid.UUID) (*model.ItemResponse, error)
	Adjust(ctx context.Context, scope ledger.Scope, itemID uuid.UUID, req AdjustRequest) (*ledger.Result, error)
	GetLots(orgID, itemID uuid.UUID, activeOnly bool) ([]model.LotResponse, error)
	GetExpiringLots(orgID uuid.UUID, itemID *uuid.UUID, withinDays int) ([]model.LotResponse, error)
	GetEvents(orgID, itemID uuid.UUID, limit int) ([]model.LedgerEvent, error)
	CheckSync(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) (*ledger.SyncReport, error)
}

type inventoryService struct {
	items  repository.ItemRepository
	lots   repository.LotRepository
	events repository.EventRepository
	engine *ledger.Engine
	hub    *ws.Hub
}

func NewInventoryService(
	items repository.ItemRepository,
	lots repository.LotRepository,
	events repository.EventRepository,
	engine *ledger.Engine,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		items:  items,
		lots:   lots,
		events: events,
		engine: engine,
		hub:    hub,
	}
}

func (s *inventoryService) CreateItem(ctx context.Context, scope ledger.Scope, req CreateItemRequest) (*model.ItemResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}
	if !unit.Known(req.Unit) {
		return nil, fmt.Errorf("%w: unknown unit %q", ErrValidation, req.Unit)
	}

	if _, err := s.items.FindByName(scope.OrgID, req.Name); err == nil {
		return nil, ErrItemNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tracked := true
	if req.Tracked != nil {
		tracked = *req.Tracked
	}

	item := &model.InventoryItem{
		OrganizationID:    scope.OrgID,
		Name:              req.Name,
		SKU:               req.SKU,
		Unit:              req.Unit,
		UnitCost:          decimal.NewFromFloat(req.UnitCost),
		LowStockThreshold: req.LowStockThreshold,
		Perishable:        req.Perishable,
		ShelfLifeDays:     req.ShelfLifeDays,
		Density:           req.Density,
		Tracked:           tracked,
	}
	item.CreatedBy = scope.ActorID
	if err := s.items.Create(item); err != nil {
		return nil, err
	}

	// Prime the ledger at creation, zero quantity included, so every item's
	// history begins with its initial_stock record.
	res, err := s.engine.Adjust(ctx, scope, ledger.AdjustParams{
		ItemID:     item.ID,
		ChangeType: ledger.ChangeInitialStock,
		Quantity:   req.InitialQuantity,
		Notes:      "initial stock on item creation",
	})
	if err != nil {
		return nil, err
	}
	item.QuantityBase += res.DeltaBase

	resp := item.ToResponse()
	return &resp, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, scope ledger.Scope, itemID uuid.UUID, req UpdateItemRequest) (*model.ItemResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}

	item, err := s.items.FindByID(scope.OrgID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrItemNotFound
		}
		return nil, err
	}

	if req.Name != item.Name {
		if _, err := s.items.FindByName(scope.OrgID, req.Name); err == nil {
			return nil, ErrItemNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	item.Name = req.Name
	item.SKU = req.SKU
	item.LowStockThreshold = req.LowStockThreshold
	item.Perishable = req.Perishable
	item.ShelfLifeDays = req.ShelfLifeDays
	item.Density = req.Density
	if req.Tracked != nil {
		item.Tracked = *req.Tracked
	}
	item.UpdatedBy = scope.ActorID

	if err := s.items.UpdateMetadata(item); err != nil {
		return nil, err
	}

	resp := item.ToResponse()
	return &resp, nil
}

func (s *inventoryService) GetItems(orgID uuid.UUID) ([]model.ItemResponse, error) {
	items, err := s.items.FindAll(orgID)
	if err != nil {
		return nil, err
	}
	responses := make([]model.ItemResponse, len(items))
	for i := range items {
		responses[i] = items[i].ToResponse()
	}
	return responses, nil
}

func (s *inventoryService) GetItem(orgID, itemID uuid.UUID) (*model.ItemResponse, error) {
	item, err := s.items.FindByID(orgID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrItemNotFound
		}
		return nil, err
	}
	resp := item.ToResponse()
	return &resp, nil
}

func (s *inventoryService) Adjust(ctx context.Context, scope ledger.Scope, itemID uuid.UUID, req AdjustRequest) (*ledger.Result, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrValidation, errs[0].FailedField, errs[0].Tag)
	}

	params := ledger.AdjustParams{
		ItemID:         itemID,
		ChangeType:     ledger.ChangeType(req.ChangeType),
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Notes:          req.Notes,
		Customer:       req.Customer,
		OrderID:        req.OrderID,
		TargetQuantity: req.TargetQuantity,
	}
	if req.CostOverride != nil {
		c := decimal.NewFromFloat(*req.CostOverride)
		params.CostOverride = &c
	}
	if req.SalePrice != nil {
		p := decimal.NewFromFloat(*req.SalePrice)
		params.SalePrice = &p
	}
	if req.CustomShelfLifeDays != nil {
		params.CustomShelfLifeDays = req.CustomShelfLifeDays
	}
	if req.CustomExpiration != nil && *req.CustomExpiration != "" {
		t, err := time.Parse(time.RFC3339, *req.CustomExpiration)
		if err != nil {
			return nil, fmt.Errorf("%w: custom_expiration must be RFC 3339", ErrValidation)
		}
		params.CustomExpiration = &t
	}

	result, err := s.engine.Adjust(ctx, scope, params)
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.Event{
		Type:   "inventory_adjusted",
		Action: string(result.ChangeType),
		Payload: map[string]interface{}{
			"item_id":         itemID,
			"change_type":     result.ChangeType,
			"delta_base":      result.DeltaBase,
			"quantity_after":  result.After,
			"quantity_before": result.Before,
		},
		Message: result.Message,
	})

	return result, nil
}

func (s *inventoryService) GetLots(orgID, itemID uuid.UUID, activeOnly bool) ([]model.LotResponse, error) {
	var (
		lots []model.InventoryLot
		err  error
	)
	if activeOnly {
		lots, err = s.lots.FindActiveByItem(orgID, itemID)
	} else {
		lots, err = s.lots.FindByItem(orgID, itemID)
	}
	if err != nil {
		return nil, err
	}
	responses := make([]model.LotResponse, len(lots))
	for i := range lots {
		responses[i] = lots[i].ToResponse()
	}
	return responses, nil
}

func (s *inventoryService) GetExpiringLots(orgID uuid.UUID, itemID *uuid.UUID, withinDays int) ([]model.LotResponse, error) {
	if withinDays <= 0 {
		withinDays = 7
	}
	lots, err := s.lots.FindExpiring(orgID, itemID, time.Duration(withinDays)*24*time.Hour, time.Now())
	if err != nil {
		return nil, err
	}
	responses := make([]model.LotResponse, len(lots))
	for i := range lots {
		responses[i] = lots[i].ToResponse()
	}
	return responses, nil
}

func (s *inventoryService) GetEvents(orgID, itemID uuid.UUID, limit int) ([]model.LedgerEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.events.FindByItem(orgID, itemID, limit)
}

func (s *inventoryService) CheckSync(ctx context.Context, scope ledger.Scope, itemID uuid.UUID) (*ledger.SyncReport, error) {
	return s.engine.ValidateSync(ctx, scope, itemID)
}

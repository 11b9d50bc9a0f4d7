package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/service"
)

type InventoryHandler struct {
	inventory service.InventoryService
}

func NewInventoryHandler(inventory service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// scopeFrom builds the tenant scope from the authenticated context.
func scopeFrom(c *fiber.Ctx) (ledger.Scope, error) {
	orgID, err := uuid.Parse(c.Locals("org_id").(string))
	if err != nil {
		return ledger.Scope{}, err
	}
	actorID, _ := c.Locals("user_id").(string)
	return ledger.Scope{OrgID: orgID, ActorID: actorID}, nil
}

// ledgerError maps domain errors to HTTP statuses.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case ledger.IsNotFound(err):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case ledger.IsClientError(err),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrItemNameTaken):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrFifoSync):
		// Invariant breach: the transaction rolled back, nothing was applied.
		return c.Status(500).JSON(fiber.Map{"error": "inventory ledger is out of sync, the operation was rolled back"})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// CreateItem handles POST /items
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req service.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	item, err := h.inventory.CreateItem(c.Context(), scope, req)
	if err != nil {
		return ledgerError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Item created successfully",
		"data":    item,
	})
}

// GetItems handles GET /items
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	items, err := h.inventory.GetItems(scope.OrgID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetItem handles GET /items/:id
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	item, err := h.inventory.GetItem(scope.OrgID, itemID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": item})
}

// UpdateItem handles PUT /items/:id
func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	item, err := h.inventory.UpdateItem(c.Context(), scope, itemID, req)
	if err != nil {
		return ledgerError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Item updated successfully",
		"data":    item,
	})
}

// Adjust handles POST /items/:id/adjust, the single entry point for every
// stock movement.
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	var req service.AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.inventory.Adjust(c.Context(), scope, itemID, req)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": result})
}

// GetLots handles GET /items/:id/lots?active=true
func (h *InventoryHandler) GetLots(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	lots, err := h.inventory.GetLots(scope.OrgID, itemID, c.QueryBool("active"))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": lots})
}

// GetExpiringLots handles GET /lots/expiring?item_id=&days=
func (h *InventoryHandler) GetExpiringLots(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	var itemID *uuid.UUID
	if raw := c.Query("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
		}
		itemID = &id
	}

	lots, err := h.inventory.GetExpiringLots(scope.OrgID, itemID, c.QueryInt("days", 7))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": lots})
}

// GetEvents handles GET /items/:id/events?limit=
func (h *InventoryHandler) GetEvents(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	events, err := h.inventory.GetEvents(scope.OrgID, itemID, c.QueryInt("limit", 100))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": events})
}

// CheckSync handles GET /items/:id/sync
func (h *InventoryHandler) CheckSync(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid item ID"})
	}

	report, err := h.inventory.CheckSync(c.Context(), scope, itemID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(fiber.Map{"data": report})
}

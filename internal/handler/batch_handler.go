package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-makerstock/internal/ledger"
	"go-makerstock/internal/service"
)

type BatchHandler struct {
	batches service.BatchService
}

func NewBatchHandler(batches service.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

func batchError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrBatchNotFound), ledger.IsNotFound(err):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrBatchCompleted),
		errors.Is(err, service.ErrBatchEmpty),
		errors.Is(err, service.ErrValidation),
		ledger.IsClientError(err):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// Create handles POST /batches
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req service.CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	batch, err := h.batches.Create(scope, req)
	if err != nil {
		return batchError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Batch created successfully",
		"data":    batch,
	})
}

// List handles GET /batches
func (h *BatchHandler) List(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	batches, err := h.batches.List(scope.OrgID)
	if err != nil {
		return batchError(c, err)
	}
	return c.JSON(fiber.Map{"data": batches})
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.batches.Get(scope.OrgID, batchID)
	if err != nil {
		return batchError(c, err)
	}
	return c.JSON(fiber.Map{"data": batch})
}

// Complete handles POST /batches/:id/complete. All ingredient deductions and
// output restocks commit or roll back together.
func (h *BatchHandler) Complete(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	var req service.CompleteBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.batches.Complete(c.Context(), scope, batchID, req)
	if err != nil {
		return batchError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Batch completed successfully",
		"data":    result,
	})
}

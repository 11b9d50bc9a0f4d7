package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-makerstock/internal/service"
)

type DashboardHandler struct {
	dashboard service.DashboardService
}

func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetStats handles GET /dashboard/stats
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	stats, err := h.dashboard.GetStats(scope.OrgID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetLowStock handles GET /dashboard/low-stock
func (h *DashboardHandler) GetLowStock(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	items, err := h.dashboard.GetLowStock(scope.OrgID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetStockMovement handles GET /dashboard/stock-movement?days=7
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	movement, err := h.dashboard.GetStockMovement(scope.OrgID, c.QueryInt("days", 7))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"data": movement})
}

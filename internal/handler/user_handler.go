package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-makerstock/internal/service"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func userError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// Create handles POST /users (ADMIN only)
func (h *UserHandler) Create(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.users.Create(scope.OrgID, scope.ActorID, req)
	if err != nil {
		return userError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user,
	})
}

// List handles GET /users
func (h *UserHandler) List(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	users, err := h.users.List(scope.OrgID)
	if err != nil {
		return userError(c, err)
	}
	return c.JSON(fiber.Map{"data": users})
}

// Update handles PUT /users/:id (ADMIN only)
func (h *UserHandler) Update(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.users.Update(scope.OrgID, userID, scope.ActorID, req)
	if err != nil {
		return userError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user,
	})
}

// Delete handles DELETE /users/:id (ADMIN only)
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid session"})
	}

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if userID.String() == scope.ActorID {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot delete your own account"})
	}

	if err := h.users.Delete(scope.OrgID, userID); err != nil {
		return userError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/IvanTrutnev/Fitness-app/internal/middleware"
	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Username  *string `json:"username,omitempty"`
	Role      string  `json:"role" validate:"omitempty,oneof=member trainer admin"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// CreateUser registers a member record (admin only). Authentication itself is
// handled upstream; this only seeds the local profile the visit and balance
// records reference.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "A valid email is required")
	}

	user := &model.User{
		Email:     req.Email,
		Username:  req.Username,
		Role:      model.Role(req.Role),
		AvatarURL: req.AvatarURL,
	}

	if err := h.users.CreateUser(c.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "User with this email already exists",
			})
		}
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    user,
		"message": "User created successfully",
	})
}

// GetUser returns a user profile (staff or the user itself).
func (h *Handler) GetUser(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	userID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if principal.Role == model.RoleMember && principal.UserID != userID {
		return forbidden(c, "Not authorized to view this user")
	}

	user, err := h.users.GetUser(c.Context(), userID)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

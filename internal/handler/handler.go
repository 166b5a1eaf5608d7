package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/IvanTrutnev/Fitness-app/internal/config"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
	"github.com/IvanTrutnev/Fitness-app/internal/service"
)

type Handler struct {
	cfg        *config.Config
	balanceSvc *service.BalanceService
	visitSvc   *service.VisitService
	users      service.UserStore
	validate   *validator.Validate
	log        *logrus.Logger
}

func New(cfg *config.Config, balanceSvc *service.BalanceService, visitSvc *service.VisitService, users service.UserStore, log *logrus.Logger) *Handler {
	return &Handler{
		cfg:        cfg,
		balanceSvc: balanceSvc,
		visitSvc:   visitSvc,
		users:      users,
		validate:   validator.New(),
		log:        log,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// serviceError maps service/repository failures onto the response envelope:
// business failures 400, unresolved ids 404, anything else 500.
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": insufficient.Message,
		})
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound(c, "User not found")
	case errors.Is(err, repository.ErrBalanceNotFound):
		return notFound(c, "Balance not found")
	case errors.Is(err, repository.ErrVisitNotFound):
		return notFound(c, "Visit not found")
	}

	h.log.WithError(err).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// parseTimeQuery accepts RFC 3339 timestamps and bare dates.
func parseTimeQuery(c *fiber.Ctx, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

func parseUUIDQuery(c *fiber.Ctx, name string) *uuid.UUID {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

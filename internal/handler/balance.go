package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IvanTrutnev/Fitness-app/internal/middleware"
	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
)

// GetActiveBalance returns the caller's eligible balance, 404 when none.
func (h *Handler) GetActiveBalance(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	balance, err := h.balanceSvc.GetActiveBalance(c.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNoEligibleBalance) {
			return notFound(c, "Active balance not found")
		}
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": model.ActiveBalanceInfo{
			ID:           balance.ID,
			Visits:       balance.Visits,
			DueDate:      balance.DueDate,
			IsExpired:    balance.DueDate.Before(time.Now()),
			PurchaseDate: balance.PurchaseDate,
		},
	})
}

// GetBalanceHistory returns all of the caller's balances, newest first.
func (h *Handler) GetBalanceHistory(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	balances, err := h.balanceSvc.ListBalances(c.Context(), principal.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    balances,
	})
}

type CreateBalanceRequest struct {
	UserID  string           `json:"userId" validate:"required,uuid"`
	Visits  int              `json:"visits" validate:"required,gt=0"`
	DueDate time.Time        `json:"dueDate" validate:"required"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Notes   *string          `json:"notes,omitempty"`
}

// CreateBalance records a purchased bundle for a member (admin only). Merges
// into the member's active balance when one exists.
func (h *Handler) CreateBalance(c *fiber.Ctx) error {
	var req CreateBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "Required fields: userId, visits, dueDate")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "Invalid userId")
	}
	if _, err := h.users.GetUser(c.Context(), userID); err != nil {
		return h.serviceError(c, err)
	}

	balance, err := h.balanceSvc.TopUp(c.Context(), userID, req.Visits, req.DueDate, req.Price, req.Notes)
	if err != nil {
		return h.serviceError(c, err)
	}

	message := "New balance created successfully"
	if balance.Visits > req.Visits {
		message = fmt.Sprintf("Added %d visits to existing balance", req.Visits)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    balance,
		"message": message,
	})
}

type UseVisitRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// UseVisit deducts one visit from the caller's balance. A missing or
// exhausted balance is a 400 with the structured result, not an error.
func (h *Handler) UseVisit(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	var req UseVisitRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.balanceSvc.ConsumeVisit(c.Context(), principal.UserID, req.Notes)
	if err != nil {
		return h.serviceError(c, err)
	}

	if !result.Success {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}
	return c.JSON(result)
}

// GetBalanceStats returns the caller's aggregated balance/attendance stats.
func (h *Handler) GetBalanceStats(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	stats, err := h.balanceSvc.GetUserStats(c.Context(), principal.UserID)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

type AddVisitsRequest struct {
	Visits int `json:"visits"`
}

// AddVisits tops up a specific balance (admin only).
func (h *Handler) AddVisits(c *fiber.Ctx) error {
	balanceID, err := parseUUIDParam(c, "balanceId")
	if err != nil {
		return badRequest(c, "Invalid balance id")
	}

	var req AddVisitsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Visits <= 0 {
		return badRequest(c, "Must specify positive number of visits")
	}

	balance, err := h.balanceSvc.AddVisitsToBalance(c.Context(), balanceID, req.Visits)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    balance,
		"message": "Visits successfully added",
	})
}

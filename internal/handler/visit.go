package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IvanTrutnev/Fitness-app/internal/middleware"
	"github.com/IvanTrutnev/Fitness-app/internal/model"
	"github.com/IvanTrutnev/Fitness-app/internal/service"
)

type CreateVisitRequest struct {
	UserID     string           `json:"userId" validate:"required,uuid"`
	TrainerID  *string          `json:"trainerId,omitempty"`
	Date       *time.Time       `json:"date,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	UseBalance bool             `json:"useBalance"`
}

// CreateVisit records an attendance. Members may record only their own
// visits; staff may record for anyone.
func (h *Handler) CreateVisit(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	var req CreateVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "UserId is required")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "Invalid userId")
	}

	if principal.Role != model.RoleAdmin && principal.Role != model.RoleTrainer && principal.UserID != userID {
		return forbidden(c, "Not authorized to create visit for this user")
	}

	input := service.CreateVisitInput{
		UserID:     userID,
		Date:       req.Date,
		Price:      req.Price,
		Notes:      req.Notes,
		UseBalance: req.UseBalance,
	}
	if req.TrainerID != nil {
		trainerID, err := uuid.Parse(*req.TrainerID)
		if err != nil {
			return badRequest(c, "Invalid trainerId")
		}
		input.TrainerID = &trainerID
	}

	visit, err := h.visitSvc.CreateVisit(c.Context(), input)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    visit,
		"message": "Visit created successfully",
	})
}

func listOptions(c *fiber.Ctx) service.VisitListOptions {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	skip, _ := strconv.Atoi(c.Query("skip", "0"))

	return service.VisitListOptions{
		Limit:    limit,
		Skip:     skip,
		DateFrom: parseTimeQuery(c, "dateFrom"),
		DateTo:   parseTimeQuery(c, "dateTo"),
	}
}

// GetAllVisits is the admin listing with the unpaged total.
func (h *Handler) GetAllVisits(c *fiber.Ctx) error {
	opts := listOptions(c)

	visits, total, err := h.visitSvc.GetAllVisits(c.Context(),
		parseUUIDQuery(c, "userId"), parseUUIDQuery(c, "trainerId"), opts)
	if err != nil {
		return h.serviceError(c, err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    visits,
		"total":   total,
		"pagination": fiber.Map{
			"limit":   limit,
			"skip":    opts.Skip,
			"hasMore": total > opts.Skip+limit,
		},
	})
}

// GetMyVisits lists the caller's own visits.
func (h *Handler) GetMyVisits(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	visits, err := h.visitSvc.GetUserVisits(c.Context(), principal.UserID,
		parseUUIDQuery(c, "trainerId"), listOptions(c))
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    visits,
	})
}

// GetUserVisits lists a member's visits (staff or the member itself).
func (h *Handler) GetUserVisits(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	userID, err := parseUUIDParam(c, "userId")
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if principal.Role != model.RoleAdmin && principal.Role != model.RoleTrainer && principal.UserID != userID {
		return forbidden(c, "Not authorized to view visits for this user")
	}

	visits, err := h.visitSvc.GetUserVisits(c.Context(), userID,
		parseUUIDQuery(c, "trainerId"), listOptions(c))
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    visits,
	})
}

// GetTrainerVisits lists a trainer's visits (admin or the trainer itself).
func (h *Handler) GetTrainerVisits(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	trainerID, err := parseUUIDParam(c, "trainerId")
	if err != nil {
		return badRequest(c, "Invalid trainer id")
	}

	if principal.Role != model.RoleAdmin && principal.UserID != trainerID {
		return forbidden(c, "Not authorized to view visits for this trainer")
	}

	visits, err := h.visitSvc.GetTrainerVisits(c.Context(), trainerID,
		parseUUIDQuery(c, "userId"), listOptions(c))
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    visits,
	})
}

// GetVisitStats aggregates over a period window. Scoped stats require the
// caller to be an admin or the subject of the query.
func (h *Handler) GetVisitStats(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	userID := parseUUIDQuery(c, "userId")
	trainerID := parseUUIDQuery(c, "trainerId")

	if userID != nil || trainerID != nil {
		allowed := principal.Role == model.RoleAdmin ||
			(userID != nil && principal.UserID == *userID) ||
			(trainerID != nil && principal.UserID == *trainerID)
		if !allowed {
			return forbidden(c, "Not authorized to view these statistics")
		}
	}

	period := model.StatsPeriod(c.Query("period"))
	switch period {
	case "", model.PeriodDay, model.PeriodWeek, model.PeriodMonth, model.PeriodYear:
	default:
		return badRequest(c, "Invalid period")
	}

	stats, err := h.visitSvc.GetVisitStats(c.Context(), userID, trainerID, period)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

type UpdateVisitRequest struct {
	TrainerID *string          `json:"trainerId,omitempty"`
	Date      *time.Time       `json:"date,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
}

// UpdateVisit amends trainer/date/price/notes (staff only).
func (h *Handler) UpdateVisit(c *fiber.Ctx) error {
	visitID, err := parseUUIDParam(c, "visitId")
	if err != nil {
		return badRequest(c, "Invalid visit id")
	}

	var req UpdateVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	input := service.UpdateVisitInput{
		Date:  req.Date,
		Price: req.Price,
		Notes: req.Notes,
	}
	if req.TrainerID != nil {
		trainerID, err := uuid.Parse(*req.TrainerID)
		if err != nil {
			return badRequest(c, "Invalid trainerId")
		}
		input.TrainerID = &trainerID
	}

	visit, err := h.visitSvc.UpdateVisit(c.Context(), visitID, input)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    visit,
		"message": "Visit updated successfully",
	})
}

// DeleteVisit hard-deletes a visit (admin only). A consumed balance is NOT
// refunded by deletion.
func (h *Handler) DeleteVisit(c *fiber.Ctx) error {
	visitID, err := parseUUIDParam(c, "visitId")
	if err != nil {
		return badRequest(c, "Invalid visit id")
	}

	if err := h.visitSvc.DeleteVisit(c.Context(), visitID); err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Visit deleted successfully",
	})
}

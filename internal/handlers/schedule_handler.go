package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
	"github.com/sinoficio13/gym/internal/services"
)

type scheduleApplicationService interface {
	AddEntry(ctx context.Context, dayOfWeek int, startTime string) (*services.AddEntryResult, error)
	RemoveEntry(ctx context.Context, id int64) error
	ListWeek(ctx context.Context) ([]models.ScheduleEntry, error)
	ToggleBlock(ctx context.Context, slotStart time.Time, reason *string) (*services.BlockToggleResult, error)
	ListBlocks(ctx context.Context, from, to time.Time) ([]models.BlockedSlot, error)
}

type ScheduleHandler struct {
	service scheduleApplicationService
	loc     *time.Location
}

func NewScheduleHandler(service *services.ScheduleService, loc *time.Location) *ScheduleHandler {
	return &ScheduleHandler{service: service, loc: loc}
}

type addEntryRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
}

type toggleBlockRequest struct {
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	Reason    *string `json:"reason"`
}

func (h *ScheduleHandler) ListSchedule(c *fiber.Ctx) error {
	entries, err := h.service.ListWeek(c.Context())
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(fiber.Map{"schedule": entries})
}

func (h *ScheduleHandler) AddEntry(c *fiber.Ctx) error {
	var req addEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	result, err := h.service.AddEntry(c.Context(), req.DayOfWeek, strings.TrimSpace(req.StartTime))
	if err != nil {
		return mapScheduleError(c, err)
	}

	if result.AlreadyExists {
		return c.JSON(fiber.Map{
			"already_exists": true,
			"warning":        "That time already exists for this day",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": result.Entry})
}

func (h *ScheduleHandler) RemoveEntry(c *fiber.Ctx) error {
	id, err := parsePathID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid schedule entry id"})
	}

	if err := h.service.RemoveEntry(c.Context(), id); err != nil {
		return mapScheduleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ScheduleHandler) ListBlocks(c *fiber.Ctx) error {
	from, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(c.Query("from")), h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "from and to must be formatted YYYY-MM-DD"})
	}
	to, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(c.Query("to")), h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "from and to must be formatted YYYY-MM-DD"})
	}

	blocks, err := h.service.ListBlocks(c.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(fiber.Map{"blocks": blocks})
}

func (h *ScheduleHandler) ToggleBlock(c *fiber.Ctx) error {
	var req toggleBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	slotStart, err := services.ParseSlotStart(
		strings.TrimSpace(req.Date),
		strings.TrimSpace(req.StartTime),
		h.loc,
	)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date and start_time must be formatted YYYY-MM-DD and HH:MM"})
	}

	result, err := h.service.ToggleBlock(c.Context(), slotStart, req.Reason)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return c.JSON(result)
}

func mapScheduleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStaleConfirmation):
		return c.Status(fiber.StatusTooManyRequests).
			JSON(fiber.Map{"error": "Wait for the previous change to be confirmed"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process schedule request"})
	}
}

package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sinoficio13/gym/internal/models"
)

type availabilityResolver interface {
	ResolveDate(ctx context.Context, date time.Time, requesterID int64) ([]models.Slot, error)
}

type AvailabilityHandler struct {
	resolver availabilityResolver
	loc      *time.Location
}

func NewAvailabilityHandler(resolver availabilityResolver, loc *time.Location) *AvailabilityHandler {
	return &AvailabilityHandler{resolver: resolver, loc: loc}
}

// clientSlot hides occupancy from clients: a blocked or full slot is
// just unavailable, with no capacity detail leaked.
type clientSlot struct {
	StartTime time.Time      `json:"start_time"`
	Verdict   models.Verdict `json:"verdict"`
}

func (h *AvailabilityHandler) GetAvailability(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	date, err := h.parseDate(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date must be formatted YYYY-MM-DD"})
	}

	slots, err := h.resolver.ResolveDate(c.Context(), date, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to resolve availability"})
	}

	visible := make([]clientSlot, 0, len(slots))
	for _, slot := range slots {
		visible = append(visible, clientSlot{StartTime: slot.StartTime, Verdict: slot.Verdict})
	}

	return c.JSON(fiber.Map{
		"date":   date.Format("2006-01-02"),
		"closed": len(visible) == 0,
		"slots":  visible,
	})
}

// GetAdminAvailability resolves the neutral view with occupancy counts.
func (h *AvailabilityHandler) GetAdminAvailability(c *fiber.Ctx) error {
	date, err := h.parseDate(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date must be formatted YYYY-MM-DD"})
	}

	slots, err := h.resolver.ResolveDate(c.Context(), date, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to resolve availability"})
	}

	return c.JSON(fiber.Map{
		"date":   date.Format("2006-01-02"),
		"closed": len(slots) == 0,
		"slots":  slots,
	})
}

func (h *AvailabilityHandler) parseDate(c *fiber.Ctx) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(c.Query("date")), h.loc)
}

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

type bookingApplicationService interface {
	RequestBooking(ctx context.Context, clientID int64, input services.BookingInput) (*models.Appointment, error)
	ListForClient(ctx context.Context, clientID int64, status, timeframe string) ([]models.Appointment, error)
	Cancel(ctx context.Context, actorID, appointmentID int64) (*models.Appointment, error)
	Reschedule(ctx context.Context, appointmentID int64, input services.RescheduleInput) (*models.Appointment, error)
	AdminCreate(ctx context.Context, clientID int64, input services.BookingInput) (*models.Appointment, error)
	Delete(ctx context.Context, appointmentID int64) error
	CalendarRange(ctx context.Context, from, to time.Time) ([]models.AppointmentDetail, error)
}

type BookingHandler struct {
	service bookingApplicationService
	loc     *time.Location
}

func NewBookingHandler(service *services.BookingService, loc *time.Location) *BookingHandler {
	return &BookingHandler{service: service, loc: loc}
}

type bookingRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

type rescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Status    string `json:"status"`
}

type adminCreateRequest struct {
	ClientID  int64  `json:"client_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

func (h *BookingHandler) RequestBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "client" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appt, err := h.service.RequestBooking(c.Context(), userID, services.BookingInput{
		Date:      strings.TrimSpace(req.Date),
		StartTime: strings.TrimSpace(req.StartTime),
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) ListMyBookings(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	appointments, err := h.service.ListForClient(
		c.Context(),
		userID,
		strings.TrimSpace(c.Query("status")),
		timeframe,
	)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"appointments": appointments})
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	appointmentID, err := parsePathID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	appt, err := h.service.Cancel(c.Context(), userID, appointmentID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) AdminCalendar(c *fiber.Ctx) error {
	from, to, err := h.parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "from and to must be formatted YYYY-MM-DD"})
	}

	appointments, err := h.service.CalendarRange(c.Context(), from, to)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"appointments": appointments})
}

func (h *BookingHandler) AdminCreate(c *fiber.Ctx) error {
	var req adminCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ClientID <= 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "client_id must be greater than 0"})
	}

	appt, err := h.service.AdminCreate(c.Context(), req.ClientID, services.BookingInput{
		Date:      strings.TrimSpace(req.Date),
		StartTime: strings.TrimSpace(req.StartTime),
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) Reschedule(c *fiber.Ctx) error {
	appointmentID, err := parsePathID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	var req rescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	appt, err := h.service.Reschedule(c.Context(), appointmentID, services.RescheduleInput{
		Date:      strings.TrimSpace(req.Date),
		StartTime: strings.TrimSpace(req.StartTime),
		Status:    strings.TrimSpace(req.Status),
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"appointment": appt})
}

func (h *BookingHandler) DeleteAppointment(c *fiber.Ctx) error {
	appointmentID, err := parsePathID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment id"})
	}

	if err := h.service.Delete(c.Context(), appointmentID); err != nil {
		return mapBookingError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BookingHandler) parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(c.Query("from")), h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(c.Query("to")), h.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// The range is inclusive of the "to" date.
	return from, to.AddDate(0, 0, 1), nil
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrProfileIncomplete):
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "Complete your profile before booking"})
	case errors.Is(err, services.ErrSubscriptionInactive):
		return c.Status(fiber.StatusForbidden).
			JSON(fiber.Map{"error": "Your subscription is not active"})
	case errors.Is(err, services.ErrSlotNotOffered):
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "That time is not part of the weekly schedule"})
	case errors.Is(err, services.ErrSlotBlocked):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "This slot is unavailable"})
	case errors.Is(err, services.ErrSlotFull):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "This slot is already full"})
	case errors.Is(err, services.ErrAlreadyBooked):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "You already have a booking at this time"})
	case errors.Is(err, services.ErrDuplicateForUser):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "The client already has an appointment at this time"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Appointment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}

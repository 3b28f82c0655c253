package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
	"github.com/sinoficio13/gym/internal/services"
)

type stubBookingService struct {
	requestResult  *models.Appointment
	requestErr     error
	listResult     []models.Appointment
	listErr        error
	cancelResult   *models.Appointment
	cancelErr      error
	rescheduled    *models.Appointment
	rescheduleErr  error
	adminResult    *models.Appointment
	adminErr       error
	deleteErr      error
	calendarResult []models.AppointmentDetail
	calendarErr    error

	lastClientID      int64
	lastActorID       int64
	lastAppointmentID int64
	lastBookingInput  services.BookingInput
	lastReschedule    services.RescheduleInput
	lastTimeframe     string
	lastFrom          time.Time
	lastTo            time.Time
}

func (s *stubBookingService) RequestBooking(_ context.Context, clientID int64, input services.BookingInput) (*models.Appointment, error) {
	s.lastClientID = clientID
	s.lastBookingInput = input
	return s.requestResult, s.requestErr
}

func (s *stubBookingService) ListForClient(_ context.Context, clientID int64, _, timeframe string) ([]models.Appointment, error) {
	s.lastClientID = clientID
	s.lastTimeframe = timeframe
	return s.listResult, s.listErr
}

func (s *stubBookingService) Cancel(_ context.Context, actorID, appointmentID int64) (*models.Appointment, error) {
	s.lastActorID = actorID
	s.lastAppointmentID = appointmentID
	return s.cancelResult, s.cancelErr
}

func (s *stubBookingService) Reschedule(_ context.Context, appointmentID int64, input services.RescheduleInput) (*models.Appointment, error) {
	s.lastAppointmentID = appointmentID
	s.lastReschedule = input
	return s.rescheduled, s.rescheduleErr
}

func (s *stubBookingService) AdminCreate(_ context.Context, clientID int64, input services.BookingInput) (*models.Appointment, error) {
	s.lastClientID = clientID
	s.lastBookingInput = input
	return s.adminResult, s.adminErr
}

func (s *stubBookingService) Delete(_ context.Context, appointmentID int64) error {
	s.lastAppointmentID = appointmentID
	return s.deleteErr
}

func (s *stubBookingService) CalendarRange(_ context.Context, from, to time.Time) ([]models.AppointmentDetail, error) {
	s.lastFrom = from
	s.lastTo = to
	return s.calendarResult, s.calendarErr
}

func newBookingTestApp(service *stubBookingService, role string) *fiber.App {
	handler := &BookingHandler{service: service, loc: time.UTC}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Post("/api/v1/bookings", handler.RequestBooking)
	app.Get("/api/v1/bookings", handler.ListMyBookings)
	app.Put("/api/v1/bookings/:id/cancel", handler.CancelBooking)
	app.Get("/api/v1/admin/appointments", handler.AdminCalendar)
	app.Post("/api/v1/admin/appointments", handler.AdminCreate)
	app.Put("/api/v1/admin/appointments/:id", handler.Reschedule)
	app.Delete("/api/v1/admin/appointments/:id", handler.DeleteAppointment)
	return app
}

func TestRequestBookingHandlerCreates(t *testing.T) {
	start := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	service := &stubBookingService{
		requestResult: &models.Appointment{ID: 3, UserID: 42, StartTime: start, Status: models.AppointmentConfirmed},
	}
	app := newBookingTestApp(service, "client")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
		strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastClientID != 42 {
		t.Fatalf("expected client 42, got %d", service.lastClientID)
	}
	if service.lastBookingInput.Date != "2026-09-14" || service.lastBookingInput.StartTime != "09:00" {
		t.Fatalf("unexpected input: %+v", service.lastBookingInput)
	}
}

func TestRequestBookingHandlerRejectsAdmins(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
		strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-client, got %d", resp.StatusCode)
	}
}

func TestRequestBookingHandlerMapsVerdictErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"profile incomplete", services.ErrProfileIncomplete, http.StatusUnprocessableEntity, "Complete your profile before booking"},
		{"subscription inactive", services.ErrSubscriptionInactive, http.StatusForbidden, "Your subscription is not active"},
		{"not offered", services.ErrSlotNotOffered, http.StatusBadRequest, "That time is not part of the weekly schedule"},
		{"blocked", services.ErrSlotBlocked, http.StatusConflict, "This slot is unavailable"},
		{"full", services.ErrSlotFull, http.StatusConflict, "This slot is already full"},
		{"already booked", services.ErrAlreadyBooked, http.StatusConflict, "You already have a booking at this time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubBookingService{requestErr: tc.err}
			app := newBookingTestApp(service, "client")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
				strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}

			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body.Error)
			}
		})
	}
}

func TestListMyBookingsHandlerValidatesTimeframe(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "client")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?timeframe=nextweek", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListMyBookingsHandlerPassesFilter(t *testing.T) {
	service := &stubBookingService{listResult: []models.Appointment{{ID: 1, UserID: 42}}}
	app := newBookingTestApp(service, "client")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?timeframe=upcoming", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastTimeframe != "upcoming" {
		t.Fatalf("expected timeframe upcoming, got %q", service.lastTimeframe)
	}
}

func TestCancelBookingHandlerMapsOwnershipError(t *testing.T) {
	service := &stubBookingService{cancelErr: services.ErrForbidden}
	app := newBookingTestApp(service, "client")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bookings/9/cancel", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastAppointmentID != 9 {
		t.Fatalf("expected actor 42 on appointment 9, got %d/%d", service.lastActorID, service.lastAppointmentID)
	}
}

func TestCancelBookingHandlerMapsMissingAppointment(t *testing.T) {
	service := &stubBookingService{cancelErr: pgx.ErrNoRows}
	app := newBookingTestApp(service, "client")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bookings/9/cancel", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminCalendarHandlerWidensRangeInclusive(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/appointments?from=2026-09-14&to=2026-09-20", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	wantTo := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	if !service.lastTo.Equal(wantTo) {
		t.Fatalf("expected exclusive upper bound %v, got %v", wantTo, service.lastTo)
	}
}

func TestAdminCreateHandlerRequiresClientID(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/appointments",
		strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRescheduleHandlerMapsDuplicate(t *testing.T) {
	service := &stubBookingService{rescheduleErr: services.ErrDuplicateForUser}
	app := newBookingTestApp(service, "admin")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/appointments/5",
		strings.NewReader(`{"date": "2026-09-15", "start_time": "10:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if service.lastAppointmentID != 5 {
		t.Fatalf("expected appointment 5, got %d", service.lastAppointmentID)
	}
}

func TestDeleteAppointmentHandlerReturnsNoContent(t *testing.T) {
	service := &stubBookingService{}
	app := newBookingTestApp(service, "admin")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/appointments/5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

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
	"github.com/google/uuid"
	"github.com/sinoficio13/gym/internal/models"
	"github.com/sinoficio13/gym/internal/services"
)

type stubScheduleService struct {
	addResult    *services.AddEntryResult
	addErr       error
	removeErr    error
	listResult   []models.ScheduleEntry
	toggleResult *services.BlockToggleResult
	toggleErr    error
	blocksResult []models.BlockedSlot

	lastDayOfWeek int
	lastStartTime string
	lastRemovedID int64
	lastSlotStart time.Time
	lastReason    *string
}

func (s *stubScheduleService) AddEntry(_ context.Context, dayOfWeek int, startTime string) (*services.AddEntryResult, error) {
	s.lastDayOfWeek = dayOfWeek
	s.lastStartTime = startTime
	return s.addResult, s.addErr
}

func (s *stubScheduleService) RemoveEntry(_ context.Context, id int64) error {
	s.lastRemovedID = id
	return s.removeErr
}

func (s *stubScheduleService) ListWeek(_ context.Context) ([]models.ScheduleEntry, error) {
	return s.listResult, nil
}

func (s *stubScheduleService) ToggleBlock(_ context.Context, slotStart time.Time, reason *string) (*services.BlockToggleResult, error) {
	s.lastSlotStart = slotStart
	s.lastReason = reason
	return s.toggleResult, s.toggleErr
}

func (s *stubScheduleService) ListBlocks(_ context.Context, _, _ time.Time) ([]models.BlockedSlot, error) {
	return s.blocksResult, nil
}

func newScheduleTestApp(service *stubScheduleService) *fiber.App {
	handler := &ScheduleHandler{service: service, loc: time.UTC}

	app := fiber.New()
	app.Get("/api/v1/admin/schedule", handler.ListSchedule)
	app.Post("/api/v1/admin/schedule", handler.AddEntry)
	app.Delete("/api/v1/admin/schedule/:id", handler.RemoveEntry)
	app.Get("/api/v1/admin/blocks", handler.ListBlocks)
	app.Post("/api/v1/admin/blocks/toggle", handler.ToggleBlock)
	return app
}

func TestAddEntryHandlerCreates(t *testing.T) {
	service := &stubScheduleService{
		addResult: &services.AddEntryResult{
			Entry: &models.ScheduleEntry{ID: 1, DayOfWeek: 1, StartTime: "09:00", Active: true},
		},
	}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/schedule",
		strings.NewReader(`{"day_of_week": 1, "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastDayOfWeek != 1 || service.lastStartTime != "09:00" {
		t.Fatalf("unexpected input: %d %q", service.lastDayOfWeek, service.lastStartTime)
	}
}

func TestAddEntryHandlerDuplicateWarnsWithOK(t *testing.T) {
	service := &stubScheduleService{
		addResult: &services.AddEntryResult{AlreadyExists: true},
	}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/schedule",
		strings.NewReader(`{"day_of_week": 1, "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for duplicate warning, got %d", resp.StatusCode)
	}

	var body struct {
		AlreadyExists bool   `json:"already_exists"`
		Warning       string `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.AlreadyExists || body.Warning == "" {
		t.Fatalf("expected duplicate warning, got %+v", body)
	}
}

func TestAddEntryHandlerMapsInvalidInput(t *testing.T) {
	service := &stubScheduleService{addErr: services.ErrInvalidInput}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/schedule",
		strings.NewReader(`{"day_of_week": 9, "start_time": "09:00"}`))
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

func TestRemoveEntryHandlerReturnsNoContent(t *testing.T) {
	service := &stubScheduleService{}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/schedule/4", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.lastRemovedID != 4 {
		t.Fatalf("expected entry 4 removed, got %d", service.lastRemovedID)
	}
}

func TestToggleBlockHandlerPassesSlotStart(t *testing.T) {
	service := &stubScheduleService{
		toggleResult: &services.BlockToggleResult{Blocked: true, TempID: uuid.New()},
	}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/blocks/toggle",
		strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00", "reason": "maintenance"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	want := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	if !service.lastSlotStart.Equal(want) {
		t.Fatalf("expected slot start %v, got %v", want, service.lastSlotStart)
	}
	if service.lastReason == nil || *service.lastReason != "maintenance" {
		t.Fatalf("expected reason passed through, got %v", service.lastReason)
	}

	var body struct {
		Blocked bool   `json:"blocked"`
		TempID  string `json:"temp_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Blocked || body.TempID == "" {
		t.Fatalf("expected blocked result with temp id, got %+v", body)
	}
}

func TestToggleBlockHandlerMapsStaleConfirmation(t *testing.T) {
	service := &stubScheduleService{toggleErr: services.ErrStaleConfirmation}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/blocks/toggle",
		strings.NewReader(`{"date": "2026-09-14", "start_time": "09:00"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestToggleBlockHandlerRejectsMalformedBody(t *testing.T) {
	service := &stubScheduleService{}
	app := newScheduleTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/blocks/toggle",
		strings.NewReader(`{"date": "soon", "start_time": "morning"}`))
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

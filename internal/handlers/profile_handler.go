package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/sinoficio13/gym/internal/models"
	"github.com/sinoficio13/gym/internal/repository"
)

type profileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, userID int64, input repository.UpdateProfileInput) (*models.Profile, error)
	ListClients(ctx context.Context, limit, offset int) ([]repository.ClientSummary, error)
}

type clientCounter interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

type subscriptionViewer interface {
	GetLatestByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
}

type ProfileHandler struct {
	profiles      profileStore
	users         clientCounter
	subscriptions subscriptionViewer
}

func NewProfileHandler(
	profiles profileStore,
	users clientCounter,
	subscriptions subscriptionViewer,
) *ProfileHandler {
	return &ProfileHandler{
		profiles:      profiles,
		users:         users,
		subscriptions: subscriptions,
	}
}

type updateProfileRequest struct {
	FullName     string  `json:"full_name"`
	Phone        *string `json:"phone"`
	TrainingGoal *string `json:"training_goal"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profiles.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to load profile"})
	}

	response := fiber.Map{"profile": profile}
	if sub, err := h.subscriptions.GetLatestByUserID(c.Context(), userID); err == nil {
		response["subscription"] = sub
	}
	return c.JSON(response)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "full_name is required"})
	}

	profile, err := h.profiles.Update(c.Context(), userID, repository.UpdateProfileInput{
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		TrainingGoal: req.TrainingGoal,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// ListClients is the paginated admin roster.
func (h *ProfileHandler) ListClients(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	total, err := h.users.CountByRole(c.Context(), "client")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to count clients"})
	}

	clients, err := h.profiles.ListClients(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list clients"})
	}

	return c.JSON(fiber.Map{
		"clients":    clients,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func parsePathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}

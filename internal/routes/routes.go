package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sinoficio13/gym/internal/config"
	"github.com/sinoficio13/gym/internal/events"
	"github.com/sinoficio13/gym/internal/handlers"
	"github.com/sinoficio13/gym/internal/middleware"
	"github.com/sinoficio13/gym/internal/repository"
	"github.com/sinoficio13/gym/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	loc := cfg.Location()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	hub := events.NewHub()
	go hub.Run()

	availabilityService := services.NewAvailabilityService(
		scheduleRepo,
		appointmentRepo,
		blockRepo,
		cfg.SlotCapacity,
		loc,
	)
	bookingService := services.NewBookingService(
		profileRepo,
		subscriptionRepo,
		scheduleRepo,
		appointmentRepo,
		services.NewPgSlotTxRunner(db),
		hub,
		cfg.SlotCapacity,
		cfg.SlotDuration(),
		loc,
	)
	scheduleService := services.NewScheduleService(
		scheduleRepo,
		blockRepo,
		hub,
		cfg.SlotDuration(),
		loc,
	)

	authHandler := handlers.NewAuthHandler(userRepo, profileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileRepo, userRepo, subscriptionRepo)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, loc)
	bookingHandler := handlers.NewBookingHandler(bookingService, loc)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, loc)
	eventsHandler := handlers.NewEventsHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/availability", availabilityHandler.GetAvailability)

	bookings := authProtected.Group("/bookings")
	bookings.Post("", bookingHandler.RequestBooking)
	bookings.Get("", bookingHandler.ListMyBookings)
	bookings.Put("/:id/cancel", bookingHandler.CancelBooking)

	authProtected.Get("/profile", profileHandler.GetProfile)
	authProtected.Put("/profile", profileHandler.UpdateProfile)

	admin := authProtected.Group("/admin", middleware.AdminRequired())
	admin.Get("/availability", availabilityHandler.GetAdminAvailability)
	admin.Get("/appointments", bookingHandler.AdminCalendar)
	admin.Post("/appointments", bookingHandler.AdminCreate)
	admin.Put("/appointments/:id", bookingHandler.Reschedule)
	admin.Delete("/appointments/:id", bookingHandler.DeleteAppointment)
	admin.Get("/schedule", scheduleHandler.ListSchedule)
	admin.Post("/schedule", scheduleHandler.AddEntry)
	admin.Delete("/schedule/:id", scheduleHandler.RemoveEntry)
	admin.Get("/blocks", scheduleHandler.ListBlocks)
	admin.Post("/blocks/toggle", scheduleHandler.ToggleBlock)
	admin.Get("/clients", profileHandler.ListClients)

	api.Use("/v1/ws", eventsHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(eventsHandler.HandleWebSocket))

	return registerDocsRoutes(app, cfg)
}

package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Analysis *handlers.AnalysisHandler
	Grooming *handlers.GroomingHandler
	Features *handlers.FeaturesHandler
	Health   *handlers.HealthHandler
}

// Setup registers every route under /api/v1. limiterStorage may be nil, in
// which case rate-limit counters stay in process memory.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	h Handlers,
	secret []byte,
	admins middleware.AdminChecker,
	limiterStorage fiber.Storage,
) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")

	api.Static("/uploads", cfg.UploadsDir)

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           limiterStorage,
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "auth:" + c.IP() },
		Storage:           limiterStorage,
	}))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	protected := middleware.JWTProtected(secret)

	api.Post("/auth/logout", protected, h.Auth.Logout)
	api.Get("/auth/me", protected, h.Auth.Me)

	users := api.Group("/users", protected)
	users.Get("/", middleware.AdminRequired(admins), h.User.List)
	users.Post("/me/avatar", h.User.UploadAvatar)
	users.Get("/:id", h.User.Get)
	users.Put("/:id", h.User.Update)
	users.Delete("/:id", middleware.AdminRequired(admins), h.User.Delete)

	analysis := api.Group("/analysis", protected)
	analysis.Post("/complete-analysis", h.Analysis.CompleteAnalysis)
	analysis.Get("/", h.Analysis.List)
	analysis.Get("/:id", h.Analysis.Get)

	// Fixed paths are registered before /:id so they are not taken as ids.
	grooming := api.Group("/grooming", protected)
	grooming.Post("/", h.Grooming.Create)
	grooming.Get("/", h.Grooming.List)
	grooming.Get("/stats/home", h.Grooming.HomeStats)
	grooming.Get("/stats/weekly", h.Grooming.WeeklySummary)
	grooming.Get("/achievements", h.Grooming.Achievements)
	grooming.Get("/:id", h.Grooming.Get)
	grooming.Put("/:id", h.Grooming.Update)
	grooming.Delete("/:id", h.Grooming.Delete)

	features := api.Group("/features", protected)
	features.Get("/", h.Features.List)
	features.Get("/:id", h.Features.Get)
}

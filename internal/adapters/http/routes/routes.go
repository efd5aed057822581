package routes

import (
	"surplushub/internal/adapters/http/handlers"
	"surplushub/internal/adapters/http/middleware"
	"surplushub/internal/adapters/persistence/repositories"
	"surplushub/internal/config"
	"surplushub/internal/core/domain"
	"surplushub/internal/core/services"
	"surplushub/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the sweep
// service so main can schedule it.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.SweepService {
	// Initialize repositories
	postRepo := repositories.NewPostRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	timelineRepo := repositories.NewTimelineRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService()
	clk := clock.System{}
	tolerance := services.ToleranceFromConfig(cfg.Pickup)

	postService := services.NewPostService(postRepo, claimRepo, timelineRepo, clk)
	claimService := services.NewClaimService(db, postRepo, claimRepo, timelineRepo,
		notifyService, clk, services.SecureCodeGenerator{}, tolerance)
	adminService := services.NewAdminService(db, postRepo, claimRepo, timelineRepo, clk)
	sweepService := services.NewSweepService(db, postRepo, claimRepo, timelineRepo,
		notifyService, clk, tolerance)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	postHandler := handlers.NewPostHandler(postService)
	claimHandler := handlers.NewClaimHandler(claimService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group (all workflow routes require a resolved identity)
	apiV1 := app.Group("/api/v1", middleware.AuthMiddleware(cfg))

	// Posts
	posts := apiV1.Group("/posts")
	posts.Post("/", postHandler.Create)
	posts.Get("/", postHandler.List)
	posts.Get("/:id", postHandler.Get)
	posts.Get("/:id/timeline", postHandler.Timeline)
	posts.Post("/:id/claim", claimHandler.Claim)

	// Claims
	claims := apiV1.Group("/claims")
	claims.Get("/:id", claimHandler.Get)
	claims.Post("/:id/code", middleware.StrictRateLimiter(), claimHandler.GenerateCode)
	claims.Post("/:id/confirm", claimHandler.Confirm)
	claims.Post("/:id/cancel", claimHandler.Cancel)

	// Admin
	admin := apiV1.Group("/admin", middleware.RoleMiddleware(string(domain.RoleAdmin)))
	admin.Post("/posts/:id/status", adminHandler.Override)
	admin.Post("/posts/:id/flag", adminHandler.Flag)
	admin.Delete("/posts/:id/flag", adminHandler.Unflag)

	return sweepService
}

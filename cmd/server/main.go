package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/IvanTrutnev/Fitness-app/internal/config"
	"github.com/IvanTrutnev/Fitness-app/internal/handler"
	"github.com/IvanTrutnev/Fitness-app/internal/middleware"
	"github.com/IvanTrutnev/Fitness-app/internal/repository"
	"github.com/IvanTrutnev/Fitness-app/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logrus.New()
	logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Server.Environment == "production" {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Create services
	balanceSvc := service.NewBalanceService(repo, repo, logg)
	visitSvc := service.NewVisitService(repo, repo, balanceSvc, logg)

	// Create handlers
	h := handler.New(cfg, balanceSvc, visitSvc, repo, logg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Health check
	app.Get("/health", h.Health)

	// API routes behind the authenticated principal
	api := app.Group("/api", middleware.Auth(cfg.Server.JWTSecret))

	// Users
	api.Post("/users", middleware.RequireAdmin(), h.CreateUser)
	api.Get("/users/:userId", h.GetUser)

	// Balance
	api.Get("/balance/active", h.GetActiveBalance)
	api.Get("/balance/history", h.GetBalanceHistory)
	api.Get("/balance/stats", h.GetBalanceStats)
	api.Post("/balance", middleware.RequireAdmin(), h.CreateBalance)
	api.Post("/balance/use-visit", h.UseVisit)
	api.Patch("/balance/:balanceId/add-visits", middleware.RequireAdmin(), h.AddVisits)

	// Visits
	api.Post("/visits", h.CreateVisit)
	api.Get("/visits", middleware.RequireAdmin(), h.GetAllVisits)
	api.Get("/visits/my", h.GetMyVisits)
	api.Get("/visits/stats", h.GetVisitStats)
	api.Get("/visits/user/:userId", h.GetUserVisits)
	api.Get("/visits/trainer/:trainerId", h.GetTrainerVisits)
	api.Put("/visits/:visitId", middleware.RequireStaff(), h.UpdateVisit)
	api.Delete("/visits/:visitId", middleware.RequireAdmin(), h.DeleteVisit)

	// Internal endpoints (for cron jobs)
	internal := app.Group("/internal")
	internal.Post("/cron/expire", func(c *fiber.Ctx) error {
		count, err := balanceSvc.ExpireSweep(c.Context(), time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":      "ok",
			"deactivated": count,
		})
	})

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupWorker := service.NewCleanupWorker(balanceSvc, cfg.Cleanup.Interval, logg)
	go cleanupWorker.Start(ctx)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/geosight/backend/internal/config"
	"github.com/geosight/backend/internal/database"
	"github.com/geosight/backend/internal/handlers"
	"github.com/geosight/backend/internal/middleware"
	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/internal/storage"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationSeconds)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		// Well above the per-photo cap so oversized uploads reach the
		// handler and get a specific 413 instead of a blanket rejection.
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	var photoStore storage.Store
	switch cfg.Storage.Backend {
	case "minio":
		minioStore, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		photoStore = minioStore
	case "local":
		localStore, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Server.PublicBaseURL)
		if err != nil {
			log.Fatalf("local storage initialization failed: %v", err)
		}
		app.Static(storage.URLPrefix, localStore.Dir())
		photoStore = localStore
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	userRolesHandler := handlers.NewUserRolesHandler(db)
	sightingsHandler := handlers.NewSightingsHandler(db, photoStore)
	commentsHandler := handlers.NewCommentsHandler(db)

	own := middleware.NewOwnership(db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/auth", authHandler.Login)
	app.Post("/signup", authHandler.Signup)

	userRoutes := app.Group("/users")
	userRoutes.Get("/", middleware.RequireAuth, middleware.RequireRole(models.RoleAdmin), usersHandler.List)
	userRoutes.Get("/:username", middleware.RequireAuth, usersHandler.Get)
	userRoutes.Put("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Replace)
	userRoutes.Patch("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Update)
	userRoutes.Delete("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Delete)

	roleRoutes := app.Group("/user-roles", middleware.RequireAuth, middleware.RequireRole(models.RoleAdmin))
	roleRoutes.Get("/", userRolesHandler.List)
	roleRoutes.Put("/:roleName", userRolesHandler.Create)
	roleRoutes.Get("/:roleName", userRolesHandler.Get)
	roleRoutes.Patch("/:roleName", userRolesHandler.Update)
	roleRoutes.Delete("/:roleName", userRolesHandler.Delete)

	sightingRoutes := app.Group("/sightings")
	sightingRoutes.Get("/", sightingsHandler.List)
	sightingRoutes.Get("/:id", sightingsHandler.Get)
	sightingRoutes.Post("/", middleware.RequireAuth, sightingsHandler.Create)
	sightingRoutes.Patch("/:id", middleware.RequireAuth, own.CanModifySighting, sightingsHandler.Update)
	sightingRoutes.Delete("/:id", middleware.RequireAuth, own.CanModifySighting, sightingsHandler.Delete)

	commentRoutes := app.Group("/comments")
	commentRoutes.Get("/", middleware.OptionalAuth, commentsHandler.List)
	commentRoutes.Get("/:id", commentsHandler.Get)
	commentRoutes.Post("/", middleware.RequireAuth, commentsHandler.Create)
	commentRoutes.Patch("/:id", middleware.RequireAuth, own.CanModifyComment, commentsHandler.Update)
	commentRoutes.Delete("/:id", middleware.RequireAuth, own.CanModifyComment, commentsHandler.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return httperr.NotFound("Not found.")
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"storage": cfg.Storage.Backend,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

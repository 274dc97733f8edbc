package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/groomly/groomly-api/internal/config"
	"github.com/groomly/groomly-api/internal/domain/booking"
	"github.com/groomly/groomly-api/internal/domain/catalog"
	"github.com/groomly/groomly-api/internal/domain/notification"
	"github.com/groomly/groomly-api/internal/domain/report"
	"github.com/groomly/groomly-api/internal/domain/selection"
	"github.com/groomly/groomly-api/internal/domain/slot"
	"github.com/groomly/groomly-api/internal/domain/workflow"
	"github.com/groomly/groomly-api/internal/middleware"
	"github.com/groomly/groomly-api/internal/pkg/database"
	"github.com/groomly/groomly-api/internal/pkg/jwt"
	"github.com/groomly/groomly-api/internal/pkg/lock"
	"github.com/groomly/groomly-api/internal/pkg/logger"
	pkgresponse "github.com/groomly/groomly-api/internal/pkg/response"
	"github.com/groomly/groomly-api/internal/pkg/storage"
	"github.com/groomly/groomly-api/internal/store"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("storage", cfg.StorageDriver).
		Msg("Starting Groomly API")

	ctx := context.Background()

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	locker, err := newLocker(cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure slot locking")
	}

	repos, err := store.Open(ctx, cfg, store.OpenOptions{Migrate: true, Locker: locker})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer repos.Close()

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure snapshot archive")
	}

	// ---------- Events ----------
	hub := notification.NewHub(redisClient)
	go hub.Run()

	a := newApp(cfg, repos, locker, archiver, hub)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router(limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()
	// Let in-flight archive writes finish before closing storage
	a.workflow.Wait()

	log.Info().Msg("Server exited properly")
}

// app holds the wired services and handlers
type app struct {
	cfg      *config.Config
	jwt      *jwt.Service
	workflow *workflow.Service

	slotHandler         *slot.Handler
	catalogHandler      *catalog.Handler
	bookingHandler      *booking.Handler
	selectionHandler    *selection.Handler
	workflowHandler     *workflow.Handler
	reportHandler       *report.Handler
	notificationHandler *notification.Handler
}

func newApp(cfg *config.Config, repos *store.Repositories, locker lock.Locker, archiver *report.Archiver, hub *notification.Hub) *app {
	notifier := notification.Multi{notification.LogNotifier{}, hub}

	// ---------- Services ----------
	slotService := slot.NewService(repos.Slots)
	catalogService := catalog.NewService(repos.Catalog)
	bookingService := booking.NewService(repos.Bookings, repos.Slots, locker, notifier)
	selectionService := selection.NewService(repos.Selections, repos.Bookings, repos.Catalog)

	opts := workflow.Options{AllowDirectCompletion: cfg.AllowDirectCompletion}
	if archiver != nil {
		opts.Sink = archiver
	}
	workflowService := workflow.NewService(repos.Workflow, repos.Bookings, notifier, opts)
	reportService := report.NewService(repos.Bookings, repos.Selections, repos.Workflow, selectionService, archiver)

	// ---------- Handlers ----------
	return &app{
		cfg:      cfg,
		jwt:      jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL),
		workflow: workflowService,

		slotHandler:         slot.NewHandler(slotService),
		catalogHandler:      catalog.NewHandler(catalogService),
		bookingHandler:      booking.NewHandler(bookingService),
		selectionHandler:    selection.NewHandler(selectionService),
		workflowHandler:     workflow.NewHandler(workflowService),
		reportHandler:       report.NewHandler(reportService),
		notificationHandler: notification.NewHandler(hub, cfg.AllowedOrigins),
	}
}

func (a *app) router(limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(a.cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"storage": a.cfg.StorageDriver,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(a.jwt))

			// WebSocket stream stays outside the write limiter
			a.notificationHandler.RegisterRoutes(r)

			a.slotHandler.RegisterRoutes(r, limiter.LimitWrites)
			a.catalogHandler.RegisterRoutes(r)
			a.bookingHandler.RegisterRoutes(r, limiter.LimitWrites)
			a.selectionHandler.RegisterRoutes(r, limiter.LimitWrites)
			a.workflowHandler.RegisterRoutes(r, limiter.LimitWrites)
			a.reportHandler.RegisterRoutes(r)
		})
	})

	return r
}

func newLocker(cfg *config.Config, client *redis.Client) (lock.Locker, error) {
	switch cfg.SlotLockMode {
	case config.LockNone, "":
		return nil, nil
	case config.LockLocal:
		return lock.NewLocalLocker(cfg.SlotLockTTL), nil
	case config.LockRedis:
		if client == nil {
			return nil, fmt.Errorf("SLOT_LOCK_MODE=redis needs REDIS_URL")
		}
		return lock.NewRedisLocker(client, cfg.SlotLockTTL, cfg.SlotLockAttempts), nil
	}
	return nil, fmt.Errorf("unknown slot lock mode %q", cfg.SlotLockMode)
}

func newArchiver(ctx context.Context, cfg *config.Config) (*report.Archiver, error) {
	var backend storage.Storage
	switch cfg.ArchiveBackend {
	case config.ArchiveNone, "":
		return nil, nil
	case config.ArchiveLocal:
		local, err := storage.NewLocalStorage(cfg.ArchiveLocalDir, "")
		if err != nil {
			return nil, err
		}
		backend = local
	case config.ArchiveS3:
		s3, err := storage.NewS3Storage(ctx, storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		backend = s3
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}

	log.Info().Str("backend", cfg.ArchiveBackend).Msg("Completed bookings will be archived")
	return report.NewArchiver(backend), nil
}

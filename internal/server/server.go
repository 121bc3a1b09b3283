package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/eventzen/apiserver/config"
	"github.com/eventzen/apiserver/internal/db"
	"github.com/eventzen/apiserver/internal/handlers"
	"github.com/eventzen/apiserver/internal/metrics"
	"github.com/eventzen/apiserver/internal/notify"
	"github.com/eventzen/apiserver/internal/services"
	"github.com/eventzen/apiserver/internal/storage"
	"github.com/eventzen/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the HTTP server and its long-lived dependencies.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	notifier   *notify.Notifier
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	notifier, err := NewNotifier(ctx, cfg.Broker)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objects, err := newObjectStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	eventRepo := store.NewEventRepository(dbConn)
	attendeeRepo := store.NewAttendeeRepository(dbConn)

	validate := services.NewValidator()

	var serviceNotifier services.Notifier
	if notifier != nil {
		serviceNotifier = notifier
	}

	userService := services.NewUserService(userRepo)
	eventService := services.NewEventService(eventRepo, userRepo, validate, serviceNotifier, logger)
	attendeeService := services.NewAttendeeService(attendeeRepo, eventRepo, validate, serviceNotifier, logger)

	var attachmentService *services.AttachmentService
	if objects != nil {
		if err := objects.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure attachment bucket: %w", err)
		}
		attachmentRepo := store.NewAttachmentRepository(dbConn)
		attachmentService = services.NewAttachmentService(attachmentRepo, eventRepo, objects, logger)
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret, logger)
	})
	router.Route("/events", func(r chi.Router) {
		handlers.EventsRouter(r, eventService, attachmentService, authMiddleware, logger)
	})
	router.Route("/attendees", func(r chi.Router) {
		handlers.AttendeesRouter(r, attendeeService, authMiddleware, logger)
	})
	if attachmentService != nil {
		router.Route("/attachments", func(r chi.Router) {
			handlers.AttachmentsRouter(r, attachmentService, authMiddleware, logger)
		})
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		notifier:   notifier,
	}, nil
}

// NewNotifier constructs a notifier for the configured broker, or nil when
// notifications are disabled.
func NewNotifier(ctx context.Context, cfg config.BrokerConfig) (*notify.Notifier, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case config.BrokerRabbitMQ:
		backend, err := notify.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return notify.New(backend), nil
	case config.BrokerPubSub:
		backend, err := notify.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return notify.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case config.StorageMinio:
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case config.StorageGCS:
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.notifier != nil {
		_ = s.notifier.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

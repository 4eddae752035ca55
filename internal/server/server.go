package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashvault/assetstore/config"
	"github.com/hashvault/assetstore/internal/assetstore"
	"github.com/hashvault/assetstore/internal/db"
	"github.com/hashvault/assetstore/internal/events"
	"github.com/hashvault/assetstore/internal/handlers"
	"github.com/hashvault/assetstore/internal/services"
	"github.com/hashvault/assetstore/internal/storage"
	"github.com/hashvault/assetstore/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New assembles the asset-store service: object-store backend, core
// store, optional catalog and event broker, and the HTTP surface.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	assets, err := assetstore.New(backend,
		assetstore.WithURLExpiry(time.Duration(cfg.Storage.URLExpirySeconds)*time.Second),
		assetstore.WithRenameStrategy(assetstore.NewSuffixRename(cfg.Storage.MaxRenameCandidates)),
	)
	if err != nil {
		return nil, err
	}

	var dbConn *sql.DB
	var catalog services.AssetCatalog
	if cfg.Database.CatalogEnabled {
		dbConn, err = db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open catalog database: %w", err)
		}
		catalog = store.NewAssetRepository(dbConn)
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, err
	}

	assetService := services.NewAssetService(assets, catalog, publisher, slog.Default())

	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, errors.New("JWT_SECRET is required")
	}
	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/assets", func(r chi.Router) {
		handlers.AssetRouter(r, assetService, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, jwtSecret, cfg.Auth.APIKeyHash)
	})

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
		publisher:  publisher,
	}, nil
}

// newBackend selects and verifies the object-store backend. Capability
// problems surface here, at startup, not per request.
func newBackend(ctx context.Context, cfg config.Config) (storage.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "minio":
		backend, err := storage.NewMinioBackend(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
		}
		return backend, nil
	case "gcs":
		backend, err := storage.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
		}
		return backend, nil
	case "memory":
		return storage.NewMemoryBackend("assets"), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func newPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Events.Backend)) {
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Channel), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Events.Channel), nil
	case "", "none":
		return events.NewPublisher(nil, cfg.Events.Channel), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", cfg.Events.Backend)
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
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	return s.httpServer.Close()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"labconnect/internal/config"
	"labconnect/internal/db"
	"labconnect/internal/events"
	"labconnect/internal/kafka"
	"labconnect/internal/logger"
	"labconnect/internal/messaging"
	"labconnect/internal/session"
	"labconnect/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	telemetry *telemetry.Telemetry
	publisher events.Publisher
	redis     *session.RedisStore
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env, cfg.LogLevel)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit, "built", BuildTime)

	app := &App{
		config: cfg,
		logger: slogLogger,
	}

	tel, err := telemetry.Init(ctx, ServiceName, Version, cfg.Telemetry.OTLPEndpoint, slogLogger)
	if err != nil {
		return nil, err
	}
	app.telemetry = tel

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.db = database

	if err := tel.Metrics.Database.RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	if err := Migrate(ctx, database); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := app.newSessionStore(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	sessions := session.NewManager(store, cfg.Session.Secret, cfg.Session.TTL(), cfg.Session.SecureCookie)

	app.publisher = newPublisher(cfg.Events, slogLogger)

	app.router = NewRouter(Deps{
		DB:              database,
		Sessions:        sessions,
		Publisher:       app.publisher,
		Metrics:         tel.Metrics,
		Logger:          slogLogger,
		CORSOrigins:     cfg.Server.CORSOrigins,
		EnforceAttempts: cfg.Labs.EnforceAttempts,
	})

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	slogLogger.Info("application initialized successfully")
	return app, nil
}

func (a *App) newSessionStore(ctx context.Context) (session.Store, error) {
	if a.config.Session.Store != "redis" {
		a.logger.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}

	store := session.NewRedisStore(session.NewRedisClient(a.config.Session.RedisAddr, a.config.Session.RedisDB))
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to connect to redis session store: %w", err)
	}
	a.redis = store
	a.logger.Info("using redis session store", "addr", a.config.Session.RedisAddr)
	return store, nil
}

const eventQueueSize = 256

// newPublisher picks the events backend. A broker that cannot be reached is logged and replaced by Nop.
func newPublisher(cfg config.EventsConfig, logger *slog.Logger) events.Publisher {
	switch cfg.Backend {
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS producer", "error", err)
			return events.Nop{}
		}
		return events.NewAsync(producer, eventQueueSize, logger)
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Warn("failed to initialize kafka producer", "error", err)
			return events.Nop{}
		}
		return events.NewAsync(producer, eventQueueSize, logger)
	default:
		logger.Info("domain events disabled")
		return events.Nop{}
	}
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")
	err := a.server.Shutdown(ctx)
	a.close(ctx)
	return err
}

func (a *App) close(ctx context.Context) {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	db.Close(a.db)
	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

package app

import (
	"context"
	"log/slog"

	"labconnect/internal/course"
	"labconnect/internal/db"
	"labconnect/internal/events"
	"labconnect/internal/health"
	"labconnect/internal/lab"
	"labconnect/internal/metrics"
	"labconnect/internal/middleware"
	"labconnect/internal/session"
	"labconnect/internal/submission"
	"labconnect/internal/user"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
)

// Deps are the shared resources the HTTP API is built from.
type Deps struct {
	DB              *bun.DB
	Sessions        *session.Manager
	Publisher       events.Publisher
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	CORSOrigins     []string
	EnforceAttempts bool
}

// Models lists the tables in creation order; referenced tables come first.
func Models() []interface{} {
	return []interface{}{
		(*user.User)(nil),
		(*course.Course)(nil),
		(*course.Enrollment)(nil),
		(*lab.Lab)(nil),
		(*submission.Submission)(nil),
	}
}

func Migrate(ctx context.Context, database *bun.DB) error {
	return db.RunMigrations(ctx, database, Models()...)
}

// NewRouter wires repositories, services and handlers into a chi router.
func NewRouter(d Deps) chi.Router {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(chimw.Recoverer)
	router.Use(middleware.CORS(d.CORSOrigins))

	health.NewHandler(d.Logger, map[string]health.Checker{
		"database": func(ctx context.Context) error { return db.Ping(ctx, d.DB) },
		"sessions": d.Sessions.Ping,
	}).RegisterRoutes(router)

	userRepo := user.NewRepository(d.DB, d.Metrics)
	userService := user.NewService(userRepo, d.Metrics, d.Publisher, d.Logger)
	user.NewHandler(userService, d.Sessions, d.Logger).RegisterRoutes(router)

	courseRepo := course.NewRepository(d.DB, d.Metrics)
	courseService := course.NewService(courseRepo, d.Metrics, d.Publisher, d.Logger)
	course.NewHandler(courseService, d.Sessions, d.Logger).RegisterRoutes(router)

	labRepo := lab.NewRepository(d.DB, d.Metrics)
	labService := lab.NewService(labRepo, courseService, d.Metrics, d.Publisher, d.Logger)
	lab.NewHandler(labService, d.Sessions, d.Logger).RegisterRoutes(router)

	submissionRepo := submission.NewRepository(d.DB, d.Metrics)
	submissionService := submission.NewService(
		submissionRepo,
		labService,
		courseService,
		submission.Options{EnforceAttempts: d.EnforceAttempts},
		d.Metrics,
		d.Publisher,
		d.Logger,
	)
	submission.NewHandler(submissionService, d.Sessions, d.Logger).RegisterRoutes(router)

	return router
}

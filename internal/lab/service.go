package lab

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"labconnect/internal/apperr"
	"labconnect/internal/course"
	"labconnect/internal/events"
	"labconnect/internal/metrics"
)

var (
	ErrLabNotFound    = apperr.NotFound("lab not found")
	ErrDeadlineBefore = apperr.Validation("deadline must not be earlier than start_date",
		apperr.FieldError{Field: "deadline", Error: "must not be earlier than start_date"})
)

// Courses is the part of the course service labs depend on.
type Courses interface {
	GetByID(ctx context.Context, id int) (*course.Course, error)
	EnsureOwner(ctx context.Context, courseID, teacherID int) (*course.Course, error)
}

type Service interface {
	CreateLab(ctx context.Context, teacherID int, req CreateLabRequest) (*Lab, error)
	ListByCourse(ctx context.Context, courseID int) ([]Lab, error)
	GetByID(ctx context.Context, id int) (*Lab, error)
}

type service struct {
	repo      Repository
	courses   Courses
	metrics   *metrics.Metrics
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, courses Courses, m *metrics.Metrics, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		courses:   courses,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) CreateLab(ctx context.Context, teacherID int, req CreateLabRequest) (*Lab, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(req.Name)
	}
	if title == "" {
		return nil, apperr.Validation("title is required", apperr.FieldError{Field: "title", Error: "this field is required"})
	}
	if req.StartDate == nil || req.Deadline == nil || req.StartDate.IsZero() || req.Deadline.IsZero() {
		return nil, apperr.Validation("start_date and deadline are required")
	}
	// a bare-date deadline stays open for the whole day
	deadline := req.Deadline.EndOfDay()
	if deadline.Before(req.StartDate.Time) {
		return nil, ErrDeadlineBefore
	}

	if _, err := s.courses.EnsureOwner(ctx, req.CourseID, teacherID); err != nil {
		return nil, err
	}

	lab := &Lab{
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		CourseID:     req.CourseID,
		TemplateCode: req.TemplateCode,
		StartDate:    req.StartDate.Time,
		Deadline:     deadline,
		MaxScore:     DefaultMaxScore,
		Attempts:     DefaultAttempts,
		Requirements: strings.TrimSpace(req.Requirements),
	}
	if req.MaxScore != nil {
		lab.MaxScore = *req.MaxScore
	}
	if req.Attempts != nil {
		lab.Attempts = *req.Attempts
	}

	if err := s.repo.Create(ctx, lab); err != nil {
		return nil, err
	}

	s.metrics.RecordLabCreated(ctx)
	events.Emit(ctx, s.publisher, s.logger, events.LabCreated, map[string]interface{}{
		"lab_id":    lab.ID,
		"course_id": lab.CourseID,
		"deadline":  lab.Deadline,
	})
	return lab.withStatus(s.now()), nil
}

func (s *service) ListByCourse(ctx context.Context, courseID int) ([]Lab, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	labs, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range labs {
		labs[i].withStatus(now)
	}
	return labs, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*Lab, error) {
	lab, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return lab.withStatus(s.now()), nil
}

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database *DatabaseMetrics

	usersRegistered     metric.Int64Counter
	logins              metric.Int64Counter
	coursesCreated      metric.Int64Counter
	enrollments         metric.Int64Counter
	labsCreated         metric.Int64Counter
	submissionsCreated  metric.Int64Counter
	submissionsReviewed metric.Int64Counter
}

func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{Database: database}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.usersRegistered, "labconnect.users.registered", "Total number of registered users", "{user}"},
		{&m.logins, "labconnect.users.logins", "Total number of login attempts", "{login}"},
		{&m.coursesCreated, "labconnect.courses.created", "Total number of courses created", "{course}"},
		{&m.enrollments, "labconnect.courses.enrollments", "Total number of course enrollments", "{enrollment}"},
		{&m.labsCreated, "labconnect.labs.created", "Total number of labs created", "{lab}"},
		{&m.submissionsCreated, "labconnect.submissions.created", "Total number of lab submissions", "{submission}"},
		{&m.submissionsReviewed, "labconnect.submissions.reviewed", "Total number of reviewed submissions", "{submission}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
	}

	logger.Info("metrics collectors initialized successfully")
	return m, nil
}

// NewMock creates a no-op Metrics instance for testing.
// The returned Metrics will safely ignore all Record* calls.
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}}
}

func (m *Metrics) RecordUserRegistered(ctx context.Context, role string) {
	if m != nil && m.usersRegistered != nil {
		m.usersRegistered.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
	}
}

func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	if m != nil && m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

func (m *Metrics) RecordCourseCreated(ctx context.Context) {
	if m != nil && m.coursesCreated != nil {
		m.coursesCreated.Add(ctx, 1)
	}
}

// RecordEnrollment counts enrollments by how the student joined: "invite" or "password".
func (m *Metrics) RecordEnrollment(ctx context.Context, via string) {
	if m != nil && m.enrollments != nil {
		m.enrollments.Add(ctx, 1, metric.WithAttributes(attribute.String("via", via)))
	}
}

func (m *Metrics) RecordLabCreated(ctx context.Context) {
	if m != nil && m.labsCreated != nil {
		m.labsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordSubmission(ctx context.Context) {
	if m != nil && m.submissionsCreated != nil {
		m.submissionsCreated.Add(ctx, 1)
	}
}

// RecordReview counts teacher decisions by resulting status.
func (m *Metrics) RecordReview(ctx context.Context, status string) {
	if m != nil && m.submissionsReviewed != nil {
		m.submissionsReviewed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

package events

import (
	"context"
	"log/slog"
	"time"
)

// Event types published by the services.
const (
	UserRegistered     = "user.registered"
	UserDeleted        = "user.deleted"
	CourseCreated      = "course.created"
	CourseEnrolled     = "course.enrolled"
	LabCreated         = "lab.created"
	SubmissionCreated  = "submission.created"
	SubmissionChecked  = "submission.checked"
	SubmissionRevision = "submission.revision"
)

type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(eventType string, payload interface{}) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }

// Emit publishes an event and only logs a failure. Domain operations never fail because of it.
func Emit(ctx context.Context, pub Publisher, logger *slog.Logger, eventType string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, New(eventType, payload)); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}

package lab

import "time"

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// StatusAt derives the lab status from the current time. Both bounds are inclusive for active.
func StatusAt(now, start, deadline time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(deadline):
		return StatusCompleted
	default:
		return StatusActive
	}
}

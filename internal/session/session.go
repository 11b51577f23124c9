package session

import (
	"context"
	"time"

	"labconnect/internal/apperr"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

var ErrNoSession = apperr.Unauthenticated("not authenticated")

// Profile is the public part of a user kept in the session. It never holds the password hash.
type Profile struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Group      string `json:"group"`
	Faculty    string `json:"faculty"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

// Store keeps session profiles server-side, keyed by opaque session id.
type Store interface {
	Save(ctx context.Context, id string, profile Profile, ttl time.Duration) error
	// Load returns ErrNoSession for unknown or expired ids.
	Load(ctx context.Context, id string) (Profile, error)
	Delete(ctx context.Context, id string) error
	// DeleteUser removes every session of the user, on any device.
	DeleteUser(ctx context.Context, userID int) error
	Ping(ctx context.Context) error
}

package user

import (
	"time"

	"labconnect/internal/session"

	"github.com/uptrace/bun"
)

const (
	RoleStudent = session.RoleStudent
	RoleTeacher = session.RoleTeacher
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int       `bun:"id,pk,autoincrement" json:"id"`
	Username   string    `bun:"username,notnull,unique" json:"username"`
	Password   string    `bun:"password,notnull" json:"-"`
	Email      string    `bun:"email,notnull,unique" json:"email"`
	Role       string    `bun:"role,notnull" json:"role"`
	FirstName  string    `bun:"first_name,notnull" json:"firstName"`
	LastName   string    `bun:"last_name,notnull" json:"lastName"`
	Group      string    `bun:"group_name" json:"group"`
	Faculty    string    `bun:"faculty" json:"faculty"`
	Department string    `bun:"department" json:"department"`
	Position   string    `bun:"position" json:"position"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// ToProfile returns the session view of the user.
func (u *User) ToProfile() session.Profile {
	return session.Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		Group:      u.Group,
		Faculty:    u.Faculty,
		Department: u.Department,
		Position:   u.Position,
	}
}

type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Password   string `json:"password" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required,max=100"`
	LastName   string `json:"lastName" validate:"required,max=100"`
	Role       string `json:"role" validate:"required,oneof=student teacher"`
	Group      string `json:"group" validate:"max=50"`
	Faculty    string `json:"faculty" validate:"max=100"`
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Group      *string `json:"group" validate:"omitempty,max=50"`
	Faculty    *string `json:"faculty" validate:"omitempty,max=100"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Position   *string `json:"position" validate:"omitempty,max=100"`
}

type ChangeUsernameRequest struct {
	NewUsername string `json:"newUsername" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

type DeleteAccountRequest struct {
	Password     string `json:"password" validate:"required"`
	Confirmation string `json:"confirmation" validate:"required"`
}

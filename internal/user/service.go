package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"labconnect/internal/apperr"
	"labconnect/internal/auth"
	"labconnect/internal/events"
	"labconnect/internal/metrics"
)

// DeleteConfirmation is the phrase a user types to confirm account deletion.
const DeleteConfirmation = "DELETE"

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrUserExists         = apperr.Conflict("username or email already exists")
	ErrUsernameTaken      = apperr.Conflict("username already exists")
	ErrEmailTaken         = apperr.Conflict("email already exists")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid username or password")
	ErrWrongPassword      = apperr.Unauthenticated("incorrect password")
	ErrPasswordMismatch   = apperr.Validation("passwords do not match",
		apperr.FieldError{Field: "confirmPassword", Error: "does not match"})
	ErrSamePassword = apperr.Validation("new password must differ from the current one",
		apperr.FieldError{Field: "newPassword", Error: "must differ from the current password"})
	ErrBadConfirmation = apperr.Validation(`type "DELETE" to confirm`,
		apperr.FieldError{Field: "confirmation", Error: `must be "DELETE"`})
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Authenticate(ctx context.Context, username, password string) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error)
	ChangeUsername(ctx context.Context, id int, newUsername, password string) (*User, error)
	ChangePassword(ctx context.Context, id int, req ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, id int, password, confirmation string) error
}

type service struct {
	repo      Repository
	metrics   *metrics.Metrics
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, m *metrics.Metrics, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func passwordPolicy(field, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return apperr.Validation(err.Error(), apperr.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := passwordPolicy("password", req.Password); err != nil {
		return nil, err
	}

	username := normalize(req.Username)
	email := normalize(req.Email)

	taken, err := s.repo.UsernameExists(ctx, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:   username,
		Password:   hash,
		Email:      email,
		Role:       req.Role,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Group:      strings.TrimSpace(req.Group),
		Faculty:    strings.TrimSpace(req.Faculty),
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.metrics.RecordUserRegistered(ctx, user.Role)
	events.Emit(ctx, s.publisher, s.logger, events.UserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, normalize(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.RecordLogin(ctx, false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.Password, password) {
		s.metrics.RecordLogin(ctx, false)
		return nil, ErrInvalidCredentials
	}

	s.metrics.RecordLogin(ctx, true)
	return user, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id int, req UpdateProfileRequest) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	set := func(column string, dst *string, src *string, transform func(string) string) {
		if src == nil {
			return
		}
		*dst = transform(*src)
		columns = append(columns, column)
	}
	set("first_name", &user.FirstName, req.FirstName, strings.TrimSpace)
	set("last_name", &user.LastName, req.LastName, strings.TrimSpace)
	set("email", &user.Email, req.Email, normalize)
	set("group_name", &user.Group, req.Group, strings.TrimSpace)
	set("faculty", &user.Faculty, req.Faculty, strings.TrimSpace)
	set("department", &user.Department, req.Department, strings.TrimSpace)
	set("position", &user.Position, req.Position, strings.TrimSpace)

	if len(columns) == 0 {
		return user, nil
	}

	if req.Email != nil {
		taken, err := s.repo.EmailExists(ctx, user.Email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	if err := s.repo.Update(ctx, user, columns...); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) ChangeUsername(ctx context.Context, id int, newUsername, password string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.Password, password) {
		return nil, ErrWrongPassword
	}

	username := normalize(newUsername)
	if username == user.Username {
		return user, nil
	}
	taken, err := s.repo.UsernameExists(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	user.Username = username
	if err := s.repo.Update(ctx, user, "username"); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *service) ChangePassword(ctx context.Context, id int, req ChangePasswordRequest) error {
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.NewPassword {
		return ErrPasswordMismatch
	}
	if err := passwordPolicy("newPassword", req.NewPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.Password, req.CurrentPassword) {
		return ErrWrongPassword
	}
	if req.NewPassword == req.CurrentPassword {
		return ErrSamePassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	return s.repo.Update(ctx, user, "password")
}

func (s *service) DeleteAccount(ctx context.Context, id int, password, confirmation string) error {
	if strings.TrimSpace(confirmation) != DeleteConfirmation {
		return ErrBadConfirmation
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.Password, password) {
		return ErrWrongPassword
	}

	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account deleted", "user_id", id, "role", user.Role)
	events.Emit(ctx, s.publisher, s.logger, events.UserDeleted, map[string]interface{}{
		"user_id": id,
		"role":    user.Role,
	})
	return nil
}

package user

import (
	"context"
	"fmt"
	"time"

	"labconnect/internal/db"
	"labconnect/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string, exceptID int) (bool, error)
	EmailExists(ctx context.Context, email string, exceptID int) (bool, error)
	Update(ctx context.Context, user *User, columns ...string) error
	DeleteAccount(ctx context.Context, id int) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(user).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*User, error) {
	start := time.Now()
	user := new(User)
	err := r.db.NewSelect().Model(user).Where("id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	start := time.Now()
	user := new(User)
	err := r.db.NewSelect().
		Model(user).
		Where("username = ?", username).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

func (r *repository) UsernameExists(ctx context.Context, username string, exceptID int) (bool, error) {
	return r.exists(ctx, "username", username, exceptID)
}

func (r *repository) EmailExists(ctx context.Context, email string, exceptID int) (bool, error) {
	return r.exists(ctx, "email", email, exceptID)
}

func (r *repository) exists(ctx context.Context, column, value string, exceptID int) (bool, error) {
	start := time.Now()
	ok, err := r.db.NewSelect().
		Model((*User)(nil)).
		Where("? = ?", bun.Ident(column), value).
		Where("id <> ?", exceptID).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return ok, nil
}

// Update writes the given columns of user, or every column when none are named.
func (r *repository) Update(ctx context.Context, user *User, columns ...string) error {
	start := time.Now()
	q := r.db.NewUpdate().Model(user).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("id", "created_at")
	}
	result, err := q.Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "users", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

const ownedCourses = "SELECT id FROM courses WHERE teacher_id = ?"

// DeleteAccount removes the user and everything hanging off it in one transaction.
func (r *repository) DeleteAccount(ctx context.Context, id int) error {
	steps := []struct {
		table string
		where string
	}{
		{"submissions", "student_id = ?"},
		{"submissions", "lab_id IN (SELECT id FROM labs WHERE course_id IN (" + ownedCourses + "))"},
		{"course_students", "student_id = ?"},
		{"course_students", "course_id IN (" + ownedCourses + ")"},
		{"labs", "course_id IN (" + ownedCourses + ")"},
		{"courses", "teacher_id = ?"},
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, step := range steps {
			start := time.Now()
			_, err := tx.NewDelete().TableExpr(step.table).Where(step.where, id).Exec(ctx)
			r.metrics.Database.RecordQuery(ctx, "delete", step.table, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("failed to delete from %s: %w", step.table, err)
			}
		}

		start := time.Now()
		result, err := tx.NewDelete().Model((*User)(nil)).Where("id = ?", id).Exec(ctx)
		r.metrics.Database.RecordQuery(ctx, "delete", "users", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

package submission

import (
	"context"
	"fmt"
	"time"

	"labconnect/internal/db"
	"labconnect/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, submission *Submission) error
	GetByID(ctx context.Context, id int) (*Submission, error)
	ListByLab(ctx context.Context, labID int) ([]Submission, error)
	ListByStudent(ctx context.Context, studentID int, labID *int) ([]Submission, error)
	CountByStudent(ctx context.Context, labID, studentID int) (int, error)
	// Review stores the outcome of a review. It only applies to pending submissions.
	Review(ctx context.Context, submission *Submission) error
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

func (r *repository) Create(ctx context.Context, submission *Submission) error {
	start := time.Now()
	_, err := r.db.NewInsert().
		Model(submission).
		Returning("id, status, submitted_at").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "submissions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Submission, error) {
	start := time.Now()
	submission := new(Submission)
	err := r.db.NewSelect().Model(submission).Where("s.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "submissions", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (r *repository) ListByLab(ctx context.Context, labID int) ([]Submission, error) {
	start := time.Now()
	submissions := make([]Submission, 0)
	err := r.db.NewSelect().
		Model(&submissions).
		ColumnExpr("s.*").
		ColumnExpr("u.username AS student_username").
		ColumnExpr("concat_ws(' ', u.first_name, u.last_name) AS student_name").
		Join("JOIN users AS u ON u.id = s.student_id").
		Where("s.lab_id = ?", labID).
		Order("s.submitted_at DESC", "s.id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "submissions", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list lab submissions: %w", err)
	}
	return submissions, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int, labID *int) ([]Submission, error) {
	start := time.Now()
	submissions := make([]Submission, 0)
	q := r.db.NewSelect().
		Model(&submissions).
		Where("s.student_id = ?", studentID)
	if labID != nil {
		q = q.Where("s.lab_id = ?", *labID)
	}
	err := q.Order("s.submitted_at DESC", "s.id DESC").Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "submissions", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list student submissions: %w", err)
	}
	return submissions, nil
}

func (r *repository) CountByStudent(ctx context.Context, labID, studentID int) (int, error) {
	start := time.Now()
	count, err := r.db.NewSelect().
		Model((*Submission)(nil)).
		Where("s.lab_id = ?", labID).
		Where("s.student_id = ?", studentID).
		Count(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "submissions", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (r *repository) Review(ctx context.Context, submission *Submission) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(submission).
		Column("status", "score", "teacher_comment", "checked_at").
		WherePK().
		Where("status = ?", StatusPending).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "submissions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

package lab

import (
	"context"
	"fmt"
	"time"

	"labconnect/internal/db"
	"labconnect/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, lab *Lab) error
	GetByID(ctx context.Context, id int) (*Lab, error)
	ListByCourse(ctx context.Context, courseID int) ([]Lab, error)
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

func (r *repository) Create(ctx context.Context, lab *Lab) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(lab).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "labs", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to insert lab: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Lab, error) {
	start := time.Now()
	lab := new(Lab)
	err := r.db.NewSelect().Model(lab).Where("l.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "labs", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrLabNotFound
		}
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}
	return lab, nil
}

func (r *repository) ListByCourse(ctx context.Context, courseID int) ([]Lab, error) {
	start := time.Now()
	labs := make([]Lab, 0)
	err := r.db.NewSelect().
		Model(&labs).
		Where("l.course_id = ?", courseID).
		Order("l.start_date ASC", "l.id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "labs", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	return labs, nil
}

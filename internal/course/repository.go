package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"labconnect/internal/db"
	"labconnect/internal/metrics"

	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id int) (*Course, error)
	GetByInviteCode(ctx context.Context, code string) (*Course, error)
	ListByTeacher(ctx context.Context, teacherID int) ([]Course, error)
	ListByStudent(ctx context.Context, studentID int) ([]Course, error)
	Search(ctx context.Context, query string) ([]Course, error)
	Enroll(ctx context.Context, enrollment *Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID int) (bool, error)
	ListStudents(ctx context.Context, courseID int) ([]Student, error)
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

func (r *repository) Create(ctx context.Context, course *Course) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(course).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "courses", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return errInviteCodeTaken
		}
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Course, error) {
	return r.getOne(ctx, "c.id = ?", id)
}

func (r *repository) GetByInviteCode(ctx context.Context, code string) (*Course, error) {
	return r.getOne(ctx, "c.invite_code = ?", code)
}

func (r *repository) getOne(ctx context.Context, where string, arg interface{}) (*Course, error) {
	start := time.Now()
	course := new(Course)
	err := r.db.NewSelect().Model(course).Where(where, arg).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (r *repository) ListByTeacher(ctx context.Context, teacherID int) ([]Course, error) {
	start := time.Now()
	courses := make([]Course, 0)
	err := r.db.NewSelect().
		Model(&courses).
		Where("c.teacher_id = ?", teacherID).
		Order("c.created_at DESC", "c.id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list teacher courses: %w", err)
	}
	return courses, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Course, error) {
	start := time.Now()
	courses := make([]Course, 0)
	err := r.db.NewSelect().
		Model(&courses).
		Join("JOIN course_students AS cs ON cs.course_id = c.id").
		Where("cs.student_id = ?", studentID).
		Order("cs.joined_at DESC", "c.id DESC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list student courses: %w", err)
	}
	return courses, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repository) Search(ctx context.Context, query string) ([]Course, error) {
	start := time.Now()
	pattern := "%" + likeEscaper.Replace(query) + "%"
	courses := make([]Course, 0)
	err := r.db.NewSelect().
		Model(&courses).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("c.name ILIKE ?", pattern).WhereOr("c.discipline ILIKE ?", pattern)
		}).
		Order("c.name ASC", "c.id ASC").
		Limit(100).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "courses", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}
	return courses, nil
}

func (r *repository) Enroll(ctx context.Context, enrollment *Enrollment) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(enrollment).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "course_students", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to enroll student: %w", err)
	}
	return nil
}

func (r *repository) IsEnrolled(ctx context.Context, courseID, studentID int) (bool, error) {
	start := time.Now()
	ok, err := r.db.NewSelect().
		Model((*Enrollment)(nil)).
		Where("cs.course_id = ?", courseID).
		Where("cs.student_id = ?", studentID).
		Exists(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "course_students", time.Since(start), err)

	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return ok, nil
}

func (r *repository) ListStudents(ctx context.Context, courseID int) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	err := r.db.NewSelect().
		TableExpr("course_students AS cs").
		ColumnExpr("u.id, u.username, u.email, u.first_name, u.last_name, u.group_name, cs.joined_at").
		Join("JOIN users AS u ON u.id = cs.student_id").
		Where("cs.course_id = ?", courseID).
		OrderExpr("u.last_name ASC, u.first_name ASC").
		Scan(ctx, &students)

	r.metrics.Database.RecordQuery(ctx, "select", "course_students", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list course students: %w", err)
	}
	return students, nil
}

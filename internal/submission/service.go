package submission

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"labconnect/internal/apperr"
	"labconnect/internal/course"
	"labconnect/internal/events"
	"labconnect/internal/lab"
	"labconnect/internal/metrics"
)

var (
	ErrSubmissionNotFound = apperr.NotFound("submission not found")
	ErrEmptySubmission    = apperr.Validation("files or code is required",
		apperr.FieldError{Field: "code", Error: "files or code is required"})
	ErrScoreRequired = apperr.Validation("score is required",
		apperr.FieldError{Field: "score", Error: "this field is required"})
	ErrNotEnrolled       = apperr.Forbidden("you are not enrolled in this course")
	ErrNotPending        = apperr.Conflict("submission has already been reviewed")
	ErrAttemptsExhausted = apperr.Conflict("no attempts left for this lab")
)

// Labs is the part of the lab service submissions depend on.
type Labs interface {
	GetByID(ctx context.Context, id int) (*lab.Lab, error)
}

// Courses is the part of the course service submissions depend on.
type Courses interface {
	IsEnrolled(ctx context.Context, courseID, studentID int) (bool, error)
	EnsureOwner(ctx context.Context, courseID, teacherID int) (*course.Course, error)
}

type Service interface {
	Submit(ctx context.Context, studentID int, req SubmitRequest) (*Submission, error)
	Grade(ctx context.Context, teacherID, submissionID int, req GradeRequest) (*Submission, error)
	RequestRevision(ctx context.Context, teacherID, submissionID int, comment string) (*Submission, error)
	ListByLab(ctx context.Context, teacherID, labID int) ([]Submission, error)
	ListForStudent(ctx context.Context, studentID int, labID *int) ([]Submission, error)
}

type Options struct {
	// EnforceAttempts rejects submissions beyond the lab's attempts limit.
	EnforceAttempts bool
}

type service struct {
	repo      Repository
	labs      Labs
	courses   Courses
	opts      Options
	metrics   *metrics.Metrics
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, labs Labs, courses Courses, opts Options, m *metrics.Metrics, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		labs:      labs,
		courses:   courses,
		opts:      opts,
		metrics:   m,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func cleanFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *service) Submit(ctx context.Context, studentID int, req SubmitRequest) (*Submission, error) {
	files := cleanFiles(req.Files)
	if len(files) == 0 && strings.TrimSpace(req.Code) == "" {
		return nil, ErrEmptySubmission
	}

	l, err := s.labs.GetByID(ctx, req.LabID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, l.CourseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	if s.opts.EnforceAttempts {
		used, err := s.repo.CountByStudent(ctx, l.ID, studentID)
		if err != nil {
			return nil, err
		}
		if used >= l.Attempts {
			return nil, ErrAttemptsExhausted
		}
	}

	submission := &Submission{
		LabID:     l.ID,
		StudentID: studentID,
		Files:     files,
		Code:      req.Code,
		Comment:   strings.TrimSpace(req.Comment),
		Status:    StatusPending,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.metrics.RecordSubmission(ctx)
	events.Emit(ctx, s.publisher, s.logger, events.SubmissionCreated, map[string]interface{}{
		"submission_id": submission.ID,
		"lab_id":        l.ID,
		"student_id":    studentID,
	})
	return submission, nil
}

// reviewable loads a pending submission of a lab owned by teacherID.
func (s *service) reviewable(ctx context.Context, teacherID, submissionID int) (*Submission, *lab.Lab, error) {
	submission, err := s.repo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	l, err := s.labs.GetByID(ctx, submission.LabID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.courses.EnsureOwner(ctx, l.CourseID, teacherID); err != nil {
		return nil, nil, err
	}
	if submission.Status != StatusPending {
		return nil, nil, ErrNotPending
	}
	return submission, l, nil
}

func (s *service) Grade(ctx context.Context, teacherID, submissionID int, req GradeRequest) (*Submission, error) {
	if req.Score == nil {
		return nil, ErrScoreRequired
	}

	submission, l, err := s.reviewable(ctx, teacherID, submissionID)
	if err != nil {
		return nil, err
	}

	score := *req.Score
	if score < 0 || score > l.MaxScore {
		return nil, apperr.Validation("score is out of range",
			apperr.FieldError{Field: "score", Error: "must be between 0 and the lab's max_score"})
	}

	checkedAt := s.now().UTC()
	submission.Status = StatusChecked
	submission.Score = &score
	submission.TeacherComment = strings.TrimSpace(req.TeacherComment)
	submission.CheckedAt = &checkedAt

	if err := s.repo.Review(ctx, submission); err != nil {
		return nil, err
	}

	s.metrics.RecordReview(ctx, string(StatusChecked))
	events.Emit(ctx, s.publisher, s.logger, events.SubmissionChecked, map[string]interface{}{
		"submission_id": submission.ID,
		"student_id":    submission.StudentID,
		"score":         score,
	})
	return submission, nil
}

func (s *service) RequestRevision(ctx context.Context, teacherID, submissionID int, comment string) (*Submission, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperr.Validation("teacher_comment is required",
			apperr.FieldError{Field: "teacher_comment", Error: "this field is required"})
	}

	submission, _, err := s.reviewable(ctx, teacherID, submissionID)
	if err != nil {
		return nil, err
	}

	submission.Status = StatusRevision
	submission.TeacherComment = comment

	if err := s.repo.Review(ctx, submission); err != nil {
		return nil, err
	}

	s.metrics.RecordReview(ctx, string(StatusRevision))
	events.Emit(ctx, s.publisher, s.logger, events.SubmissionRevision, map[string]interface{}{
		"submission_id": submission.ID,
		"student_id":    submission.StudentID,
	})
	return submission, nil
}

func (s *service) ListByLab(ctx context.Context, teacherID, labID int) ([]Submission, error) {
	l, err := s.labs.GetByID(ctx, labID)
	if err != nil {
		return nil, err
	}
	if _, err := s.courses.EnsureOwner(ctx, l.CourseID, teacherID); err != nil {
		return nil, err
	}
	return s.repo.ListByLab(ctx, labID)
}

func (s *service) ListForStudent(ctx context.Context, studentID int, labID *int) ([]Submission, error) {
	return s.repo.ListByStudent(ctx, studentID, labID)
}

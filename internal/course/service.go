package course

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"labconnect/internal/apperr"
	"labconnect/internal/events"
	"labconnect/internal/metrics"
)

const maxInviteAttempts = 5

var (
	ErrCourseNotFound  = apperr.NotFound("course not found")
	ErrAlreadyEnrolled = apperr.Conflict("already enrolled in this course")
	ErrInvalidPassword = apperr.Forbidden("invalid course password")
	ErrNotCourseOwner  = apperr.Forbidden("you are not the teacher of this course")
	ErrInvalidInvite   = apperr.Validation("invite code is required")
	errInviteCodeTaken = errors.New("invite code already in use")
	errInviteExhausted = errors.New("could not generate a unique invite code")
)

type Service interface {
	CreateCourse(ctx context.Context, teacherID int, req CreateCourseRequest) (*Course, error)
	ListForTeacher(ctx context.Context, teacherID int) ([]Course, error)
	ListForStudent(ctx context.Context, studentID int) ([]Course, error)
	Search(ctx context.Context, query string) ([]Course, error)
	GetByID(ctx context.Context, id int) (*Course, error)
	GetByInvite(ctx context.Context, code string) (*Course, error)
	Enroll(ctx context.Context, studentID, courseID int, password *string) (*Course, error)
	JoinByInvite(ctx context.Context, studentID int, code string) (*Course, error)
	ListStudents(ctx context.Context, courseID int) ([]Student, error)
	IsEnrolled(ctx context.Context, courseID, studentID int) (bool, error)
	EnsureOwner(ctx context.Context, courseID, teacherID int) (*Course, error)
}

type service struct {
	repo         Repository
	metrics      *metrics.Metrics
	publisher    events.Publisher
	logger       *slog.Logger
	generateCode func() (string, error)
}

func NewService(repo Repository, m *metrics.Metrics, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:         repo,
		metrics:      m,
		publisher:    publisher,
		logger:       logger,
		generateCode: GenerateInviteCode,
	}
}

func (s *service) CreateCourse(ctx context.Context, teacherID int, req CreateCourseRequest) (*Course, error) {
	name := strings.TrimSpace(req.Name)
	discipline := strings.TrimSpace(req.Discipline)

	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Error: "this field is required"})
	}
	if discipline == "" {
		fields = append(fields, apperr.FieldError{Field: "discipline", Error: "this field is required"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("name and discipline are required", fields...)
	}

	course := &Course{
		Name:        name,
		Discipline:  discipline,
		Description: strings.TrimSpace(req.Description),
		TeacherID:   teacherID,
	}
	if req.Password != "" {
		password := req.Password
		course.Password = &password
	}

	for attempt := 1; ; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, err
		}
		course.InviteCode = code

		err = s.repo.Create(ctx, course)
		if err == nil {
			break
		}
		if !errors.Is(err, errInviteCodeTaken) {
			return nil, err
		}
		if attempt == maxInviteAttempts {
			return nil, errInviteExhausted
		}
		s.logger.WarnContext(ctx, "invite code collision, regenerating", "attempt", attempt)
	}

	s.metrics.RecordCourseCreated(ctx)
	events.Emit(ctx, s.publisher, s.logger, events.CourseCreated, map[string]interface{}{
		"course_id":  course.ID,
		"teacher_id": teacherID,
	})
	return course, nil
}

func (s *service) ListForTeacher(ctx context.Context, teacherID int) ([]Course, error) {
	return s.repo.ListByTeacher(ctx, teacherID)
}

func (s *service) ListForStudent(ctx context.Context, studentID int) ([]Course, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *service) Search(ctx context.Context, query string) ([]Course, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query))
}

func (s *service) GetByID(ctx context.Context, id int) (*Course, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByInvite(ctx context.Context, code string) (*Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidInvite
	}
	return s.repo.GetByInviteCode(ctx, code)
}

func (s *service) Enroll(ctx context.Context, studentID, courseID int, password *string) (*Course, error) {
	course, err := s.repo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.Password != nil && *course.Password != "" {
		if password == nil || *password != *course.Password {
			return nil, ErrInvalidPassword
		}
	}

	if err := s.enroll(ctx, course, studentID, "password"); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) JoinByInvite(ctx context.Context, studentID int, code string) (*Course, error) {
	course, err := s.GetByInvite(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.enroll(ctx, course, studentID, "invite"); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) enroll(ctx context.Context, course *Course, studentID int, via string) error {
	enrolled, err := s.repo.IsEnrolled(ctx, course.ID, studentID)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}

	// The unique (course_id, student_id) index settles concurrent joins.
	if err := s.repo.Enroll(ctx, &Enrollment{CourseID: course.ID, StudentID: studentID}); err != nil {
		return err
	}

	s.metrics.RecordEnrollment(ctx, via)
	events.Emit(ctx, s.publisher, s.logger, events.CourseEnrolled, map[string]interface{}{
		"course_id":  course.ID,
		"student_id": studentID,
		"via":        via,
	})
	return nil
}

func (s *service) ListStudents(ctx context.Context, courseID int) ([]Student, error) {
	if _, err := s.repo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListStudents(ctx, courseID)
}

func (s *service) IsEnrolled(ctx context.Context, courseID, studentID int) (bool, error) {
	return s.repo.IsEnrolled(ctx, courseID, studentID)
}

// EnsureOwner returns the course when teacherID owns it.
func (s *service) EnsureOwner(ctx context.Context, courseID, teacherID int) (*Course, error) {
	course, err := s.repo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

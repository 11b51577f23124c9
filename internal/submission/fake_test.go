package submission

import (
	"context"
	"sync"
	"time"

	"labconnect/internal/course"
	"labconnect/internal/lab"
)

const (
	teacherID      = 1
	studentID      = 2
	otherStudentID = 3
	courseID       = 10
	labID          = 100
)

type fakeRepository struct {
	mu          sync.Mutex
	submissions []*Submission
}

func (f *fakeRepository) Create(_ context.Context, s *Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = len(f.submissions) + 1
	s.SubmittedAt = time.Now()
	stored := *s
	f.submissions = append(f.submissions, &stored)
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id int) (*Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || id > len(f.submissions) {
		return nil, ErrSubmissionNotFound
	}
	copied := *f.submissions[id-1]
	return &copied, nil
}

func (f *fakeRepository) list(match func(*Submission) bool) []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, 0)
	for _, s := range f.submissions {
		if match(s) {
			out = append(out, *s)
		}
	}
	return out
}

func (f *fakeRepository) ListByLab(_ context.Context, id int) ([]Submission, error) {
	return f.list(func(s *Submission) bool { return s.LabID == id }), nil
}

func (f *fakeRepository) ListByStudent(_ context.Context, student int, lab *int) ([]Submission, error) {
	return f.list(func(s *Submission) bool {
		return s.StudentID == student && (lab == nil || s.LabID == *lab)
	}), nil
}

func (f *fakeRepository) CountByStudent(_ context.Context, lab, student int) (int, error) {
	return len(f.list(func(s *Submission) bool { return s.LabID == lab && s.StudentID == student })), nil
}

func (f *fakeRepository) Review(_ context.Context, s *Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.submissions[s.ID-1]
	if stored.Status != StatusPending {
		return ErrNotPending
	}
	copied := *s
	f.submissions[s.ID-1] = &copied
	return nil
}

// fakeLabs knows one lab in courseID with a max score of 10 and two attempts.
type fakeLabs struct{}

func (fakeLabs) GetByID(_ context.Context, id int) (*lab.Lab, error) {
	if id != labID {
		return nil, lab.ErrLabNotFound
	}
	return &lab.Lab{ID: labID, CourseID: courseID, MaxScore: 10, Attempts: 2}, nil
}

// fakeCourses has studentID enrolled in courseID, which teacherID owns.
type fakeCourses struct{}

func (fakeCourses) IsEnrolled(_ context.Context, course, student int) (bool, error) {
	return course == courseID && student == studentID, nil
}

func (fakeCourses) EnsureOwner(_ context.Context, id, teacher int) (*course.Course, error) {
	if id != courseID {
		return nil, course.ErrCourseNotFound
	}
	if teacher != teacherID {
		return nil, course.ErrNotCourseOwner
	}
	return &course.Course{ID: courseID, TeacherID: teacherID}, nil
}

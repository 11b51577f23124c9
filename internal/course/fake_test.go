package course

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type fakeRepository struct {
	mu          sync.Mutex
	courses     map[int]*Course
	enrollments []Enrollment
	students    map[int]Student
	nextID      int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		courses:  make(map[int]*Course),
		students: make(map[int]Student),
		nextID:   1,
	}
}

func (f *fakeRepository) Create(_ context.Context, course *Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.InviteCode == course.InviteCode {
			return errInviteCodeTaken
		}
	}
	course.ID = f.nextID
	course.CreatedAt = time.Now()
	f.nextID++
	stored := *course
	f.courses[course.ID] = &stored
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id int) (*Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeRepository) GetByInviteCode(_ context.Context, code string) (*Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.InviteCode == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrCourseNotFound
}

func (f *fakeRepository) filter(match func(*Course) bool) []Course {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Course, 0)
	for _, c := range f.courses {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepository) ListByTeacher(_ context.Context, teacherID int) ([]Course, error) {
	return f.filter(func(c *Course) bool { return c.TeacherID == teacherID }), nil
}

func (f *fakeRepository) ListByStudent(_ context.Context, studentID int) ([]Course, error) {
	f.mu.Lock()
	ids := make(map[int]bool)
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			ids[e.CourseID] = true
		}
	}
	f.mu.Unlock()
	return f.filter(func(c *Course) bool { return ids[c.ID] }), nil
}

func (f *fakeRepository) Search(_ context.Context, query string) ([]Course, error) {
	q := strings.ToLower(query)
	return f.filter(func(c *Course) bool {
		return strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Discipline), q)
	}), nil
}

func (f *fakeRepository) Enroll(_ context.Context, enrollment *Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.CourseID == enrollment.CourseID && e.StudentID == enrollment.StudentID {
			return ErrAlreadyEnrolled
		}
	}
	enrollment.ID = len(f.enrollments) + 1
	enrollment.JoinedAt = time.Now()
	f.enrollments = append(f.enrollments, *enrollment)
	return nil
}

func (f *fakeRepository) IsEnrolled(_ context.Context, courseID, studentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) ListStudents(_ context.Context, courseID int) ([]Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Student, 0)
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			s := f.students[e.StudentID]
			s.ID = e.StudentID
			s.JoinedAt = e.JoinedAt
			out = append(out, s)
		}
	}
	return out, nil
}

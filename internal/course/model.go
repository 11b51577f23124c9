package course

import (
	"time"

	"github.com/uptrace/bun"
)

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID          int       `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	Discipline  string    `bun:"discipline,notnull" json:"discipline"`
	Password    *string   `bun:"password" json:"-"`
	TeacherID   int       `bun:"teacher_id,notnull" json:"teacher_id"`
	InviteCode  string    `bun:"invite_code,notnull,unique" json:"invite_code,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	HasPassword bool `bun:"-" json:"has_password"`
}

func (*Course) ForeignKeys() []string {
	return []string{`("teacher_id") REFERENCES "users" ("id") ON DELETE CASCADE`}
}

// ViewFor prepares the course for the given viewer. Only the owning teacher sees the invite code.
func (c *Course) ViewFor(userID int) *Course {
	view := *c
	view.HasPassword = c.Password != nil && *c.Password != ""
	if c.TeacherID != userID {
		view.InviteCode = ""
	}
	return &view
}

// Enrollment links a student to a course. A student is enrolled at most once per course.
type Enrollment struct {
	bun.BaseModel `bun:"table:course_students,alias:cs"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	CourseID  int       `bun:"course_id,notnull,unique:course_student" json:"course_id"`
	StudentID int       `bun:"student_id,notnull,unique:course_student" json:"student_id"`
	JoinedAt  time.Time `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joined_at"`
}

func (*Enrollment) ForeignKeys() []string {
	return []string{
		`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`,
		`("student_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}
}

// Student is the public profile of an enrolled student.
type Student struct {
	ID        int       `bun:"id" json:"id"`
	Username  string    `bun:"username" json:"username"`
	Email     string    `bun:"email" json:"email"`
	FirstName string    `bun:"first_name" json:"firstName"`
	LastName  string    `bun:"last_name" json:"lastName"`
	Group     string    `bun:"group_name" json:"group"`
	JoinedAt  time.Time `bun:"joined_at" json:"joined_at"`
}

type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Discipline  string `json:"discipline" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Password    string `json:"password" validate:"max=100"`
}

type JoinRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=32"`
}

type EnrollRequest struct {
	Password *string `json:"password"`
}

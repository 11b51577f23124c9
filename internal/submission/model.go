package submission

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusChecked  Status = "checked"
	StatusRevision Status = "revision"
)

type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID             int        `bun:"id,pk,autoincrement" json:"id"`
	LabID          int        `bun:"lab_id,notnull" json:"lab_id"`
	StudentID      int        `bun:"student_id,notnull" json:"student_id"`
	Files          []string   `bun:"files,array" json:"files"`
	Code           string     `bun:"code" json:"code"`
	Comment        string     `bun:"comment" json:"comment"`
	Score          *int       `bun:"score" json:"score"`
	TeacherComment string     `bun:"teacher_comment" json:"teacher_comment"`
	Status         Status     `bun:"status,notnull,default:'pending'" json:"status"`
	SubmittedAt    time.Time  `bun:"submitted_at,nullzero,notnull,default:current_timestamp" json:"submitted_at"`
	CheckedAt      *time.Time `bun:"checked_at" json:"checked_at"`

	StudentUsername string `bun:"student_username,scanonly" json:"student_username,omitempty"`
	StudentName     string `bun:"student_name,scanonly" json:"student_name,omitempty"`
}

func (*Submission) ForeignKeys() []string {
	return []string{
		`("lab_id") REFERENCES "labs" ("id") ON DELETE CASCADE`,
		`("student_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
	}
}

type SubmitRequest struct {
	LabID   int      `json:"lab_id" validate:"required,gt=0"`
	Files   []string `json:"files" validate:"max=20,dive,max=1024"`
	Code    string   `json:"code" validate:"max=200000"`
	Comment string   `json:"comment" validate:"max=5000"`
}

type GradeRequest struct {
	Score          *int   `json:"score" validate:"required"`
	TeacherComment string `json:"teacher_comment" validate:"max=5000"`
}

type RevisionRequest struct {
	TeacherComment string `json:"teacher_comment" validate:"required,max=5000"`
}

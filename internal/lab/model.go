package lab

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DefaultMaxScore = 10
	DefaultAttempts = 1
)

type Lab struct {
	bun.BaseModel `bun:"table:labs,alias:l"`

	ID           int       `bun:"id,pk,autoincrement" json:"id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Description  string    `bun:"description" json:"description"`
	CourseID     int       `bun:"course_id,notnull" json:"course_id"`
	TemplateCode string    `bun:"template_code" json:"template_code"`
	StartDate    time.Time `bun:"start_date,notnull" json:"start_date"`
	Deadline     time.Time `bun:"deadline,notnull" json:"deadline"`
	MaxScore     int       `bun:"max_score,notnull,default:10" json:"max_score"`
	Attempts     int       `bun:"attempts,notnull,default:1" json:"attempts"`
	Requirements string    `bun:"requirements" json:"requirements"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Status Status `bun:"-" json:"status"`
}

func (*Lab) ForeignKeys() []string {
	return []string{`("course_id") REFERENCES "courses" ("id") ON DELETE CASCADE`}
}

func (l *Lab) withStatus(now time.Time) *Lab {
	l.Status = StatusAt(now, l.StartDate, l.Deadline)
	return l
}

// CreateLabRequest accepts the title under either "title" or "name".
type CreateLabRequest struct {
	Title        string     `json:"title" validate:"required_without=Name,max=200"`
	Name         string     `json:"name" validate:"max=200"`
	CourseID     int        `json:"course_id" validate:"required,gt=0"`
	Description  string     `json:"description" validate:"max=10000"`
	TemplateCode string     `json:"template_code" validate:"max=100000"`
	Requirements string     `json:"requirements" validate:"max=10000"`
	StartDate    *Timestamp `json:"start_date" validate:"required"`
	Deadline     *Timestamp `json:"deadline" validate:"required"`
	MaxScore     *int       `json:"max_score" validate:"omitempty,min=1,max=1000"`
	Attempts     *int       `json:"attempts" validate:"omitempty,min=1,max=100"`
}

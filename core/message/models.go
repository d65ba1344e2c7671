package message

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tahsil/core"
)

// Message is sent by a parent to the teacher of their child.
// An anonymous message hides the parent from the teacher.
type Message struct {
	ID          string      `json:"id" db:"id"`
	StudentID   string      `json:"student_id" db:"student_id"`
	ParentID    string      `json:"parent_id,omitempty" db:"parent_id"`
	TeacherID   string      `json:"teacher_id" db:"teacher_id"`
	Topic       string      `json:"topic" db:"topic"`
	Text        string      `json:"text" db:"text"`
	IsAnonymous bool        `json:"is_anonymous" db:"is_anonymous"`
	TeacherRead bool        `json:"teacher_read" db:"teacher_read"`
	Reply       null.String `json:"reply" db:"reply"`
	RepliedAt   null.Time   `json:"replied_at" db:"replied_at"` // UTC
	CreatedAt   time.Time   `json:"created_at" db:"created_at"` // UTC
}

// ForTeacher hides the parent of anonymous messages.
func (m Message) ForTeacher() Message {
	if m.IsAnonymous {
		m.ParentID = ""
	}
	return m
}

// NewMessage contains information needed to send a Message.
type NewMessage struct {
	ParentID    string `json:"-" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	Topic       string `json:"topic" validate:"required,notblank,max=200"`
	Text        string `json:"text" validate:"required,notblank"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Topic = core.CleanString(nm.Topic)
	nm.Text = core.CleanString(nm.Text)
	return validate.Struct(nm)
}

type NewReply struct {
	Text string `json:"text" validate:"required,notblank"`
}

func (nr *NewReply) Validate(validate *validator.Validate) error {
	nr.Text = core.CleanString(nr.Text)
	return validate.Struct(nr)
}

type QueryFilter struct {
	TeacherID string `query:"-"`
	ParentID  string `query:"-"`
	StudentID string `query:"student_id"`
	Unread    bool   `query:"unread"`
}

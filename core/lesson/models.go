package lesson

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
)

const timeLayout = "15:04"

type Lesson struct {
	ID          string    `json:"id" db:"id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"` // UTC midnight
	StartTime   string    `json:"start_time" db:"start_time"`
	EndTime     string    `json:"end_time" db:"end_time"`
	GradeLevel  string    `json:"grade_level" db:"grade_level"`
	GroupType   string    `json:"group_type" db:"group_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewLesson contains information needed to create a new Lesson.
type NewLesson struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"omitempty,datetime=15:04"`
	GradeLevel  string `json:"grade_level"`
	GroupType   string `json:"group_type"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.Date = core.CleanString(nl.Date)
	nl.StartTime = core.CleanString(nl.StartTime)
	nl.EndTime = core.CleanString(nl.EndTime)
	nl.GradeLevel = core.CleanString(nl.GradeLevel)
	nl.GroupType = core.CleanString(nl.GroupType)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	return checkTimes(nl.StartTime, nl.EndTime)
}

// UpdateLesson defines what information may be provided to modify an existing Lesson.
// Empty fields keep their original value.
type UpdateLesson struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   string  `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime     string  `json:"end_time" validate:"omitempty,datetime=15:04"`
	GradeLevel  string  `json:"grade_level"`
	GroupType   string  `json:"group_type"`
}

func (ul *UpdateLesson) Validate(orig Lesson, validate *validator.Validate) error {
	keep := func(val, orig string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return orig
	}
	ul.Title = keep(ul.Title, orig.Title)
	ul.Date = keep(ul.Date, orig.Date.Format(core.DateLayout))
	ul.StartTime = keep(ul.StartTime, orig.StartTime)
	ul.EndTime = keep(ul.EndTime, orig.EndTime)
	ul.GradeLevel = keep(ul.GradeLevel, orig.GradeLevel)
	ul.GroupType = keep(ul.GroupType, orig.GroupType)
	if ul.Description == nil {
		ul.Description = &orig.Description
	}

	if err := validate.Struct(ul); err != nil {
		return err
	}
	return checkTimes(ul.StartTime, ul.EndTime)
}

func checkTimes(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	st, err := time.Parse(timeLayout, start)
	if err != nil {
		return errors.Wrap(err, "parsing start time")
	}
	et, err := time.Parse(timeLayout, end)
	if err != nil {
		return errors.Wrap(err, "parsing end time")
	}
	if !et.After(st) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "end time must be after start time"})
	}
	return nil
}

type QueryFilter struct {
	TeacherID  string    `query:"teacher_id"`
	GradeLevel string    `query:"grade_level"`
	GroupType  string    `query:"group_type"`
	From       time.Time `query:"-"` // inclusive dates
	To         time.Time `query:"-"`
}

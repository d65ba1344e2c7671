package assessment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/scoring"
)

// Assessment is a stored scoring.Record.
// There is at most one per (student, lesson), or per (student, date) when no lesson is linked.
type Assessment struct {
	ID        string `json:"id" db:"id"`
	TeacherID string `json:"teacher_id" db:"teacher_id"`
	scoring.Record
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Records extracts the scoring records of assessments.
func Records(assessments []Assessment) []scoring.Record {
	records := make([]scoring.Record, 0, len(assessments))
	for _, a := range assessments {
		records = append(records, a.Record)
	}
	return records
}

// NewAssessment contains information needed to record an Assessment.
type NewAssessment struct {
	TeacherID    string         `json:"teacher_id" validate:"required"`
	StudentID    string         `json:"student_id" validate:"required"`
	LessonID     string         `json:"lesson_id"`
	Date         string         `json:"date" validate:"required,datetime=2006-01-02"`
	Scores       scoring.Scores `json:"scores"`
	TeacherNotes string         `json:"teacher_notes"`
}

// Validate checks the payload, then every score against the aggregator's catalog.
// Out of range scores are refused, never clamped.
func (na *NewAssessment) Validate(validate *validator.Validate, agg *scoring.Aggregator) error {
	na.StudentID = core.CleanString(na.StudentID)
	na.LessonID = core.CleanString(na.LessonID)
	na.Date = core.CleanString(na.Date)
	na.TeacherNotes = core.CleanString(na.TeacherNotes)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return errors.Wrap(agg.Validate(na.Scores), "validating scores")
}

func (na *NewAssessment) record() (scoring.Record, error) {
	date, err := core.ParseDate(na.Date)
	if err != nil {
		return scoring.Record{}, errors.Wrap(err, "parsing date")
	}
	scores := na.Scores
	if scores == nil {
		scores = scoring.Scores{}
	}
	return scoring.Record{
		StudentID:    na.StudentID,
		LessonID:     null.NewString(na.LessonID, na.LessonID != ""),
		Date:         date,
		Scores:       scores,
		TeacherNotes: na.TeacherNotes,
	}, nil
}

type QueryFilter struct {
	StudentIDs []string  `query:"student_id"`
	LessonID   string    `query:"lesson_id"`
	TeacherID  string    `query:"teacher_id"`
	From       time.Time `query:"-"` // inclusive dates
	To         time.Time `query:"-"`
	WithNotes  bool      `query:"with_notes"` // only assessments with teacher notes
	Limit      int       `query:"limit"`
}

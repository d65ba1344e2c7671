package plan

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/skill"
)

// Weekdays of the school week, in order.
var Weekdays = []string{"saturday", "sunday", "monday", "tuesday", "wednesday", "thursday", "friday"}

// Days returns the dates of the school week starting on weekStart.
func Days(weekStart time.Time) []time.Time {
	start := core.WeekStart(weekStart)
	days := make([]time.Time, len(Weekdays))
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// WeekStart returns the Saturday opening the week of t.
func WeekStart(t time.Time) time.Time { return core.WeekStart(t) }

type (
	// Day is the plan of one school day. Evaluations flags the skills planned to be evaluated.
	Day struct {
		Weekday     string          `json:"weekday" validate:"required,weekday"`
		Lesson      string          `json:"lesson"`
		Homework    string          `json:"homework"`
		Notes       string          `json:"notes"`
		Evaluations map[string]bool `json:"evaluations,omitempty"`
	}

	Plan struct {
		ID         string    `json:"id"`
		TeacherID  string    `json:"teacher_id"`
		GradeLevel string    `json:"grade_level"`
		GroupType  string    `json:"group_type"`
		WeekStart  time.Time `json:"week_start"`
		Days       []Day     `json:"days"`
		CreatedAt  time.Time `json:"created_at"` // UTC
		UpdatedAt  time.Time `json:"updated_at"` // UTC
	}

	// Key identifies the plan of a class for a week.
	Key struct {
		TeacherID  string    `json:"teacher_id" query:"teacher_id" validate:"required"`
		GradeLevel string    `json:"grade_level" query:"grade_level" validate:"required"`
		GroupType  string    `json:"group_type" query:"group_type" validate:"required"`
		WeekStart  time.Time `json:"week_start" query:"-"`
	}

	// SavePlan replaces the plan of its Key.
	SavePlan struct {
		Key
		Week string `json:"week" validate:"required,datetime=2006-01-02"` // any day of the week
		Days []Day  `json:"days" validate:"max=7,dive"`
	}

	QueryFilter struct {
		TeacherID  string    `query:"teacher_id"`
		GradeLevel string    `query:"grade_level"`
		GroupType  string    `query:"group_type"`
		From       time.Time `query:"-"` // week starts, inclusive
		To         time.Time `query:"-"`
	}
)

func (k *Key) clean() {
	k.GradeLevel = core.CleanString(k.GradeLevel)
	k.GroupType = core.CleanString(k.GroupType)
	k.WeekStart = WeekStart(k.WeekStart)
}

// IsEmpty reports whether no day of the plan has any content.
func (p Plan) IsEmpty() bool {
	for _, d := range p.Days {
		if d.Lesson != "" || d.Homework != "" || d.Notes != "" || len(d.Evaluations) > 0 {
			return false
		}
	}
	return true
}

// Validate checks the payload and that every planned evaluation is a catalog skill.
func (sp *SavePlan) Validate(validate *validator.Validate, catalog *skill.Catalog) error {
	sp.Week = core.CleanString(sp.Week)
	for i := range sp.Days {
		d := &sp.Days[i]
		d.Weekday = core.CleanString(d.Weekday, true /* lower */)
		d.Lesson = core.CleanString(d.Lesson)
		d.Homework = core.CleanString(d.Homework)
		d.Notes = core.CleanString(d.Notes)
	}
	if err := validate.Struct(sp); err != nil {
		return err
	}

	week, err := core.ParseDate(sp.Week)
	if err != nil {
		return errors.Wrap(err, "parsing week")
	}
	sp.WeekStart = week
	sp.Key.clean()

	seen := make(map[string]bool, len(sp.Days))
	for _, d := range sp.Days {
		if seen[d.Weekday] {
			return core.NewValidationError(nil, core.FieldError{Field: "days", Error: "duplicate day " + d.Weekday})
		}
		seen[d.Weekday] = true
		for key := range d.Evaluations {
			if !catalog.Has(key) {
				return errors.Wrapf(&skill.UnknownSkillError{Key: key}, "%s evaluations", d.Weekday)
			}
		}
	}
	return nil
}

// fill returns the seven days of the week in order, empty where days has no entry.
func fill(days []Day) []Day {
	byName := make(map[string]Day, len(days))
	for _, d := range days {
		byName[d.Weekday] = d
	}
	full := make([]Day, 0, len(Weekdays))
	for _, name := range Weekdays {
		d, ok := byName[name]
		if !ok {
			d = Day{Weekday: name}
		}
		for key, planned := range d.Evaluations {
			if !planned {
				delete(d.Evaluations, key) // sparse
			}
		}
		full = append(full, d)
	}
	return full
}

func isWeekday(s string) bool {
	for _, d := range Weekdays {
		if strings.EqualFold(d, s) {
			return true
		}
	}
	return false
}

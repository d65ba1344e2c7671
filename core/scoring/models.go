// Package scoring aggregates assessment scores over the skills actually evaluated.
//
// Every computation goes through an Aggregator bound to an explicit skill catalog:
// denominators are always sums of catalog max scores over evaluated skills,
// never a fixed constant.
package scoring

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// Scores maps a skill key to its score.
// A missing or null entry means the skill was not evaluated, which is not the same as 0.
type Scores map[string]null.Int

// Value implements driver.Valuer, scores are stored as a JSON object.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *Scores) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Scores{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into Scores", src)
	}
	scores := make(Scores)
	if err := json.Unmarshal(data, &scores); err != nil {
		return errors.Wrap(err, "decoding scores")
	}
	*s = scores
	return nil
}

// Get returns the score of key and whether it was evaluated.
func (s Scores) Get(key string) (int, bool) {
	score, ok := s[key]
	if !ok || !score.Valid {
		return 0, false
	}
	return score.Int, true
}

// Set evaluates key with score.
func (s Scores) Set(key string, score int) {
	s[key] = null.IntFrom(score)
}

// Record is one evaluation of one student for one lesson or lesson day.
type Record struct {
	StudentID    string      `json:"student_id" db:"student_id"`
	LessonID     null.String `json:"lesson_id" db:"lesson_id"`
	Date         time.Time   `json:"date" db:"date"`
	Scores       Scores      `json:"scores" db:"scores"`
	TeacherNotes string      `json:"teacher_notes" db:"teacher_notes"`
}

// SkillSummary is the aggregate of one skill over a period.
type SkillSummary struct {
	Key        string  `json:"key"`
	Sum        int     `json:"sum"`
	Count      int     `json:"count"` // number of records that evaluated the skill
	Average    float64 `json:"average"`
	MaxScore   int     `json:"max_score"`
	Percentage int     `json:"percentage"`
}

// PeriodReport synthesizes the records of one student over a date range into a single
// assessment whose per-skill scores are the averages of the evaluated values.
type PeriodReport struct {
	StudentID    string         `json:"student_id"`
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	RecordCount  int            `json:"record_count"`
	Skills       []SkillSummary `json:"skills"`
	Total        float64        `json:"total"`
	MaxPossible  int            `json:"max_possible"`
	Percentage   int            `json:"percentage"`
	TeacherNotes string         `json:"teacher_notes"`
}

// Improvement is the result of a most-improved-skill comparison.
type Improvement struct {
	Skill       string `json:"skill"`
	Improvement int    `json:"improvement"`
}

// Result holds the totals of a single record.
type Result struct {
	Total       int `json:"total"`
	MaxPossible int `json:"max_possible"`
	Percentage  int `json:"percentage"`
}

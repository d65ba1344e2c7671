// Package report shapes scoring results for the lesson roster, the student charts,
// the dashboards and the weekly snapshots.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core/scoring"
)

// Level is a four-tier classification of a percentage.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelAverage   Level = "average"
	LevelWeak      Level = "weak"
)

// LevelOf classifies pct: excellent >= 80, good >= 60, average >= 40, weak otherwise.
func LevelOf(pct int) Level {
	switch {
	case pct >= 80:
		return LevelExcellent
	case pct >= 60:
		return LevelGood
	case pct >= 40:
		return LevelAverage
	default:
		return LevelWeak
	}
}

type (
	StudentResult struct {
		StudentID  string `json:"student_id"`
		Total      int    `json:"total"`
		Max        int    `json:"max"`
		Percentage int    `json:"percentage"`
		Level      Level  `json:"level"`
	}

	// ClassStats operate over raw student totals, not percentages.
	ClassStats struct {
		Count   int `json:"count"`
		Average int `json:"average"`
		Max     int `json:"max"`
		Min     int `json:"min"`
	}

	Roster struct {
		PerStudent map[string]StudentResult `json:"per_student"`
		ClassStats ClassStats               `json:"class_stats"`
	}

	SeriesPoint struct {
		Date       time.Time `json:"date"`
		Label      string    `json:"label"`
		Percentage int       `json:"percentage"`
	}
)

// NewRoster reports the results of the students assessed in one lesson.
// At most one record per student is expected: a duplicate is an error.
func NewRoster(agg *scoring.Aggregator, records []scoring.Record) (*Roster, error) {
	rst := &Roster{PerStudent: make(map[string]StudentResult, len(records))}

	var sum int
	for _, r := range records {
		if _, dup := rst.PerStudent[r.StudentID]; dup {
			return nil, errors.Errorf("duplicate assessment of student %s", r.StudentID)
		}
		res, err := agg.Evaluate(r)
		if err != nil {
			return nil, errors.Wrapf(err, "student %s", r.StudentID)
		}
		rst.PerStudent[r.StudentID] = StudentResult{
			StudentID:  r.StudentID,
			Total:      res.Total,
			Max:        res.MaxPossible,
			Percentage: res.Percentage,
			Level:      LevelOf(res.Percentage),
		}

		if rst.ClassStats.Count == 0 || res.Total > rst.ClassStats.Max {
			rst.ClassStats.Max = res.Total
		}
		if rst.ClassStats.Count == 0 || res.Total < rst.ClassStats.Min {
			rst.ClassStats.Min = res.Total
		}
		rst.ClassStats.Count++
		sum += res.Total
	}
	if rst.ClassStats.Count > 0 {
		rst.ClassStats.Average = int(math.Floor(float64(sum)/float64(rst.ClassStats.Count) + 0.5))
	}
	return rst, nil
}

// NewSeries takes the windowSize most recent records and returns their percentages
// in chronological order, ready to be charted.
func NewSeries(agg *scoring.Aggregator, records []scoring.Record, windowSize int) ([]SeriesPoint, error) {
	if windowSize <= 0 || len(records) == 0 {
		return []SeriesPoint{}, nil
	}

	recent := make([]scoring.Record, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.After(recent[j].Date) })
	if len(recent) > windowSize {
		recent = recent[:windowSize]
	}

	points := make([]SeriesPoint, len(recent))
	for i, r := range recent {
		pct, err := agg.Percentage(r)
		if err != nil {
			return nil, errors.Wrapf(err, "record of %s", r.Date.Format("2006-01-02"))
		}
		// most recent first -> chronological
		points[len(recent)-1-i] = SeriesPoint{Date: r.Date, Label: r.Date.Format("02/01"), Percentage: pct}
	}
	return points, nil
}

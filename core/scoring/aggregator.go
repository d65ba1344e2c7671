package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core/skill"
)

// Aggregator computes totals, percentages and comparisons against one catalog snapshot.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	catalog *skill.Catalog
}

func NewAggregator(catalog *skill.Catalog) *Aggregator {
	return &Aggregator{catalog: catalog}
}

func (a *Aggregator) Catalog() *skill.Catalog { return a.catalog }

// Validate checks every evaluated score against the catalog.
// Keys are checked in catalog order so that the reported error is deterministic.
func (a *Aggregator) Validate(scores Scores) error {
	for _, key := range a.EvaluatedKeys(scores) {
		max, err := a.catalog.MaxScoreOf(key)
		if err != nil {
			return err
		}
		if score, _ := scores.Get(key); score < 0 || score > max {
			return &InvalidScoreError{Key: key, Score: score, MaxScore: max}
		}
	}
	return nil
}

// EvaluatedKeys returns the keys of scores holding a non-null value, in catalog order.
func (a *Aggregator) EvaluatedKeys(scores Scores) []string {
	keys := make([]string, 0, len(scores))
	for key, score := range scores {
		if score.Valid {
			keys = append(keys, key)
		}
	}
	a.catalog.Sort(keys)
	return keys
}

// TotalScore sums the evaluated scores of r.
func (a *Aggregator) TotalScore(r Record) (int, error) {
	res, err := a.Evaluate(r)
	return res.Total, err
}

// MaxPossible sums the catalog max scores of the skills evaluated in r.
func (a *Aggregator) MaxPossible(r Record) (int, error) {
	res, err := a.Evaluate(r)
	return res.MaxPossible, err
}

// Percentage returns round(100 * total / max) of r, or 0 when nothing was evaluated.
func (a *Aggregator) Percentage(r Record) (int, error) {
	res, err := a.Evaluate(r)
	return res.Percentage, err
}

// Evaluate validates r and computes its total, max possible and percentage.
func (a *Aggregator) Evaluate(r Record) (Result, error) {
	if err := a.Validate(r.Scores); err != nil {
		return Result{}, err
	}
	keys := a.EvaluatedKeys(r.Scores)
	var total int
	for _, key := range keys {
		score, _ := r.Scores.Get(key)
		total += score
	}
	max, err := a.catalog.TotalMaxScore(keys...)
	if err != nil {
		return Result{}, err
	}
	return Result{Total: total, MaxPossible: max, Percentage: percent(float64(total), max)}, nil
}

// AggregatePeriod averages each skill over only the records that evaluated it.
// The overall percentage uses the union of evaluated skills, each weighted once by its
// catalog max score. A nil report (and no error) is returned when records is empty.
func (a *Aggregator) AggregatePeriod(records []Record) (*PeriodReport, error) {
	if len(records) == 0 {
		return nil, nil
	}

	type acc struct{ sum, count int }
	accs := make(map[string]*acc)
	var notes []string

	// notes are kept in chronological order
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	rep := &PeriodReport{
		StudentID:   ordered[0].StudentID,
		From:        ordered[0].Date,
		To:          ordered[len(ordered)-1].Date,
		RecordCount: len(ordered),
	}
	for i, r := range ordered {
		if r.StudentID != rep.StudentID {
			return nil, errMixedStudents
		}
		if err := a.Validate(r.Scores); err != nil {
			return nil, errors.Wrapf(err, "record %d of %s", i, r.Date.Format("2006-01-02"))
		}
		for _, key := range a.EvaluatedKeys(r.Scores) {
			score, _ := r.Scores.Get(key)
			if accs[key] == nil {
				accs[key] = new(acc)
			}
			accs[key].sum += score
			accs[key].count++
		}
		if note := strings.TrimSpace(r.TeacherNotes); note != "" {
			notes = append(notes, note)
		}
	}

	keys := make([]string, 0, len(accs))
	for key := range accs {
		keys = append(keys, key)
	}
	a.catalog.Sort(keys)

	rep.Skills = make([]SkillSummary, 0, len(keys))
	for _, key := range keys {
		max, err := a.catalog.MaxScoreOf(key)
		if err != nil {
			return nil, err
		}
		avg := float64(accs[key].sum) / float64(accs[key].count)
		rep.Skills = append(rep.Skills, SkillSummary{
			Key:        key,
			Sum:        accs[key].sum,
			Count:      accs[key].count,
			Average:    avg,
			MaxScore:   max,
			Percentage: percent(avg, max),
		})
		rep.Total += avg
		rep.MaxPossible += max
	}
	rep.Percentage = percent(rep.Total, rep.MaxPossible)
	rep.TeacherNotes = strings.Join(notes, "\n\n")
	return rep, nil
}

// AveragePerformance is the percentage of all the points scored over all the points
// possible in records, each record contributing its own evaluated max. It is 0 without records.
func (a *Aggregator) AveragePerformance(records []Record) (int, error) {
	var total, max int
	for _, r := range records {
		res, err := a.Evaluate(r)
		if err != nil {
			return 0, err
		}
		total += res.Total
		max += res.MaxPossible
	}
	return percent(float64(total), max), nil
}

// percent rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func percent(value float64, max int) int {
	if max == 0 {
		return 0
	}
	return round(100 * value / float64(max))
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

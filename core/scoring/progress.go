package scoring

import (
	"sort"

	"github.com/pkg/errors"
)

// unionKeys returns the keys evaluated in either previous or current, in catalog order.
func (a *Aggregator) unionKeys(previous, current Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, scores := range []Scores{previous.Scores, current.Scores} {
		for _, key := range a.EvaluatedKeys(scores) {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	a.catalog.Sort(keys)
	return keys
}

func (a *Aggregator) validatePair(previous, current Record) error {
	if err := a.Validate(previous.Scores); err != nil {
		return errors.Wrap(err, "previous record")
	}
	return errors.Wrap(a.Validate(current.Scores), "current record")
}

// ComputeProgress returns the signed progress, in percentage points, from previous to current.
// A skill evaluated in only one of the records counts as 0 in the other.
func (a *Aggregator) ComputeProgress(previous, current Record) (int, error) {
	if err := a.validatePair(previous, current); err != nil {
		return 0, err
	}
	keys := a.unionKeys(previous, current)
	var delta int
	for _, key := range keys {
		cur, _ := current.Scores.Get(key)
		prev, _ := previous.Scores.Get(key)
		delta += cur - prev
	}
	max, err := a.catalog.TotalMaxScore(keys...)
	if err != nil {
		return 0, err
	}
	return percent(float64(delta), max), nil
}

// MostImprovedSkill returns the skill with the strictly largest positive improvement from
// previous to current. Ties go to the lowest catalog priority, then to the lowest key.
// It returns nil when no skill improved.
func (a *Aggregator) MostImprovedSkill(previous, current Record) (*Improvement, error) {
	if err := a.validatePair(previous, current); err != nil {
		return nil, err
	}

	var (
		best     *Improvement
		bestPrio int
	)
	for _, key := range a.unionKeys(previous, current) {
		cur, _ := current.Scores.Get(key)
		prev, _ := previous.Scores.Get(key)
		diff := cur - prev
		if diff <= 0 {
			continue
		}
		prio, err := a.catalog.PriorityOf(key)
		if err != nil {
			return nil, err
		}
		switch {
		case best == nil,
			diff > best.Improvement,
			diff == best.Improvement && prio < bestPrio,
			diff == best.Improvement && prio == bestPrio && key < best.Skill:
			best = &Improvement{Skill: key, Improvement: diff}
			bestPrio = prio
		}
	}
	return best, nil
}

// latestPair returns the two most recent records of records, the most recent one last.
func latestPair(records []Record) (previous, current Record, ok bool) {
	if len(records) < 2 {
		return Record{}, Record{}, false
	}
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.After(ordered[j].Date) })
	return ordered[1], ordered[0], true
}

// LatestProgress computes the progress between the two most recent records.
// It is 0 when there is no baseline to compare with.
func (a *Aggregator) LatestProgress(records []Record) (int, error) {
	previous, current, ok := latestPair(records)
	if !ok {
		return 0, nil
	}
	return a.ComputeProgress(previous, current)
}

// LatestImprovement returns the most improved skill between the two most recent records,
// or nil when there is no baseline or nothing improved.
func (a *Aggregator) LatestImprovement(records []Record) (*Improvement, error) {
	previous, current, ok := latestPair(records)
	if !ok {
		return nil, nil
	}
	return a.MostImprovedSkill(previous, current)
}

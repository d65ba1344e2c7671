package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tahsil/core/skill"
)

var day = time.Date(2021, time.March, 6, 0, 0, 0, 0, time.UTC) // a Saturday

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	catalog, err := skill.NewCatalog(
		skill.Definition{Key: skill.Grammar, MaxScore: 5, Priority: 2},
		skill.Definition{Key: skill.Homework, MaxScore: 10, Priority: 5},
	)
	require.NoError(t, err)
	return NewAggregator(catalog)
}

func scores(kv ...interface{}) Scores {
	s := make(Scores)
	for i := 0; i < len(kv); i += 2 {
		key := kv[i].(string)
		switch v := kv[i+1].(type) {
		case int:
			s.Set(key, v)
		case nil:
			s[key] = null.Int{}
		}
	}
	return s
}

func record(studentID string, date time.Time, s Scores) Record {
	return Record{StudentID: studentID, Date: date, Scores: s}
}

func TestAggregator_Evaluate(t *testing.T) {
	agg := newTestAggregator(t)

	tests := []struct {
		name    string
		scores  Scores
		want    Result
		wantErr func(error) bool
	}{
		{
			name:   "partial evaluation", // homework absent
			scores: scores(skill.Grammar, 4),
			want:   Result{Total: 4, MaxPossible: 5, Percentage: 80},
		},
		{
			name:   "null is not evaluated",
			scores: scores(skill.Grammar, 4, skill.Homework, nil),
			want:   Result{Total: 4, MaxPossible: 5, Percentage: 80},
		},
		{
			name:   "zero is evaluated",
			scores: scores(skill.Grammar, 4, skill.Homework, 0),
			want:   Result{Total: 4, MaxPossible: 15, Percentage: 27},
		},
		{
			name:   "full marks",
			scores: scores(skill.Grammar, 5, skill.Homework, 10),
			want:   Result{Total: 15, MaxPossible: 15, Percentage: 100},
		},
		{
			name:   "nothing evaluated",
			scores: Scores{},
			want:   Result{},
		},
		{
			name:   "nil scores",
			scores: nil,
			want:   Result{},
		},
		{
			name:    "score above max",
			scores:  scores(skill.Grammar, 6),
			wantErr: IsInvalidScore,
		},
		{
			name:    "negative score",
			scores:  scores(skill.Homework, -1),
			wantErr: IsInvalidScore,
		},
		{
			name:    "unknown skill",
			scores:  scores(skill.Grammar, 3, skill.Quiz, 20),
			wantErr: skill.IsUnknownSkill,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.Evaluate(record("s1", day, tt.scores))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.Total, got.MaxPossible)
			assert.GreaterOrEqual(t, got.Percentage, 0)
			assert.LessOrEqual(t, got.Percentage, 100)
		})
	}
}

func TestAggregator_RecordAccessors(t *testing.T) {
	agg := newTestAggregator(t)
	r := record("s1", day, scores(skill.Grammar, 4))

	assert.Equal(t, []string{skill.Grammar}, agg.EvaluatedKeys(r.Scores))

	total, err := agg.TotalScore(r)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	max, err := agg.MaxPossible(r)
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	pct, err := agg.Percentage(r)
	require.NoError(t, err)
	assert.Equal(t, 80, pct)

	pct, err = agg.Percentage(record("s1", day, nil))
	require.NoError(t, err)
	assert.Zero(t, pct)
}

func TestAggregator_InvalidScoreError(t *testing.T) {
	agg := newTestAggregator(t)
	err := agg.Validate(scores(skill.Grammar, 6))
	require.Error(t, err)

	ise, ok := err.(*InvalidScoreError)
	require.True(t, ok)
	assert.Equal(t, InvalidScoreError{Key: skill.Grammar, Score: 6, MaxScore: 5}, *ise)
	assert.EqualError(t, err, `invalid score 6 for skill "grammar": must be between 0 and 5`)
}

func TestAggregator_AggregatePeriod(t *testing.T) {
	agg := newTestAggregator(t)

	t.Run("empty input yields no report", func(t *testing.T) {
		rep, err := agg.AggregatePeriod(nil)
		require.NoError(t, err)
		assert.Nil(t, rep)

		rep, err = agg.AggregatePeriod([]Record{})
		require.NoError(t, err)
		assert.Nil(t, rep)
	})

	t.Run("skills are averaged over the records that evaluated them", func(t *testing.T) {
		records := []Record{
			record("s1", day.AddDate(0, 0, 2), scores(skill.Grammar, 4, skill.Homework, 6)),
			record("s1", day, scores(skill.Grammar, 2)),
			record("s1", day.AddDate(0, 0, 1), scores(skill.Grammar, 3, skill.Homework, nil)),
		}
		records[0].TeacherNotes = "Monday: good effort"
		records[1].TeacherNotes = "  "
		records[2].TeacherNotes = "Sunday: late"

		rep, err := agg.AggregatePeriod(records)
		require.NoError(t, err)
		require.NotNil(t, rep)

		assert.Equal(t, "s1", rep.StudentID)
		assert.Equal(t, day, rep.From)
		assert.Equal(t, day.AddDate(0, 0, 2), rep.To)
		assert.Equal(t, 3, rep.RecordCount)
		assert.Equal(t, []SkillSummary{
			{Key: skill.Grammar, Sum: 9, Count: 3, Average: 3, MaxScore: 5, Percentage: 60},
			{Key: skill.Homework, Sum: 6, Count: 1, Average: 6, MaxScore: 10, Percentage: 60},
		}, rep.Skills)
		assert.Equal(t, 9.0, rep.Total)
		assert.Equal(t, 15, rep.MaxPossible) // each skill weighted once
		assert.Equal(t, 60, rep.Percentage)
		assert.Equal(t, "Sunday: late\n\nMonday: good effort", rep.TeacherNotes)
	})

	t.Run("denominator only covers evaluated skills", func(t *testing.T) {
		rep, err := agg.AggregatePeriod([]Record{
			record("s1", day, scores(skill.Grammar, 4)),
			record("s1", day.AddDate(0, 0, 1), scores(skill.Grammar, 5)),
		})
		require.NoError(t, err)
		assert.Equal(t, 5, rep.MaxPossible)
		assert.Equal(t, 4.5, rep.Total)
		assert.Equal(t, 90, rep.Percentage)
	})

	t.Run("records without evaluated skills still make a report", func(t *testing.T) {
		rep, err := agg.AggregatePeriod([]Record{record("s1", day, nil)})
		require.NoError(t, err)
		require.NotNil(t, rep)
		assert.Zero(t, rep.Percentage)
		assert.Empty(t, rep.Skills)
	})

	t.Run("invalid record is refused", func(t *testing.T) {
		rep, err := agg.AggregatePeriod([]Record{
			record("s1", day, scores(skill.Grammar, 4)),
			record("s1", day.AddDate(0, 0, 1), scores(skill.Grammar, 6)),
		})
		assert.Nil(t, rep)
		assert.True(t, IsInvalidScore(err))
	})

	t.Run("records of several students", func(t *testing.T) {
		_, err := agg.AggregatePeriod([]Record{
			record("s1", day, scores(skill.Grammar, 4)),
			record("s2", day, scores(skill.Grammar, 4)),
		})
		assert.Equal(t, errMixedStudents, err)
	})
}

func TestAggregator_AveragePerformance(t *testing.T) {
	agg := newTestAggregator(t)

	got, err := agg.AveragePerformance(nil)
	require.NoError(t, err)
	assert.Zero(t, got)

	// 4/5 + 5/10 + 0/0 + 15/15
	got, err = agg.AveragePerformance([]Record{
		record("s1", day, scores(skill.Grammar, 4)),
		record("s1", day.AddDate(0, 0, 1), scores(skill.Homework, 5)),
		record("s1", day.AddDate(0, 0, 2), scores(skill.Grammar, nil)),
		record("s1", day.AddDate(0, 0, 3), scores(skill.Grammar, 5, skill.Homework, 10)),
	})
	require.NoError(t, err)
	assert.Equal(t, 80, got) // 24/30

	_, err = agg.AveragePerformance([]Record{record("s1", day, scores(skill.Homework, 11))})
	assert.True(t, IsInvalidScore(err))
}

func TestScores_ValueScan(t *testing.T) {
	s := scores(skill.Grammar, 4, skill.Homework, nil)
	v, err := s.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"grammar":4,"homework":null}`, string(v.([]byte)))

	var got Scores
	require.NoError(t, got.Scan(v))
	assert.Equal(t, s, got)

	require.NoError(t, got.Scan(nil))
	assert.Equal(t, Scores{}, got)

	assert.Error(t, got.Scan(42))
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{13.33, 13},
		{12.5, 13},
		{-2.5, -2},
		{-13.33, -13},
		{-13.5, -13},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round(tt.in); got != tt.want {
			t.Errorf("round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

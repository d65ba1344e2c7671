package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		defs    []Definition
		wantErr bool
	}{
		{name: "empty", wantErr: true},
		{name: "blank key", defs: []Definition{{Key: " ", MaxScore: 5}}, wantErr: true},
		{name: "zero max", defs: []Definition{{Key: Grammar, MaxScore: 0}}, wantErr: true},
		{name: "negative max", defs: []Definition{{Key: Grammar, MaxScore: -1}}, wantErr: true},
		{name: "duplicate", defs: []Definition{{Key: Grammar, MaxScore: 5}, {Key: "Grammar", MaxScore: 3}}, wantErr: true},
		{name: "valid", defs: []Definition{{Key: Grammar, MaxScore: 5}, {Key: Homework, MaxScore: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defs...)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_List(t *testing.T) {
	c := Default()
	defs := c.List()
	require.Len(t, defs, 8)
	assert.Equal(t, DefaultDefinitions(), defs)
	assert.Equal(t, []string{Homework, Grammar, Vocabulary, Memorization, Attendance, Writing, Interaction, Quiz}, c.Keys())

	// callers cannot mutate the catalog through the returned slice
	defs[0].MaxScore = 1000
	max, err := c.MaxScoreOf(Homework)
	require.NoError(t, err)
	assert.Equal(t, 10, max)
}

func TestCatalog_MaxScoreOf(t *testing.T) {
	c := Default()

	max, err := c.MaxScoreOf(Quiz)
	require.NoError(t, err)
	assert.Equal(t, 35, max)

	_, err = c.MaxScoreOf("dancing")
	require.Error(t, err)
	assert.True(t, IsUnknownSkill(err))
	assert.EqualError(t, err, `unknown skill "dancing"`)
}

func TestCatalog_TotalMaxScore(t *testing.T) {
	c, err := NewCatalog(Definition{Key: Grammar, MaxScore: 5}, Definition{Key: Homework, MaxScore: 10})
	require.NoError(t, err)

	tests := []struct {
		name    string
		keys    []string
		want    int
		wantErr bool
	}{
		{name: "empty set", want: 0},
		{name: "single", keys: []string{Grammar}, want: 5},
		{name: "both", keys: []string{Grammar, Homework}, want: 15},
		{name: "duplicates counted once", keys: []string{Homework, Homework, Grammar}, want: 15},
		{name: "unknown key", keys: []string{Grammar, Quiz}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TotalMaxScore(tt.keys...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TotalMaxScore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TotalMaxScore() = %d, want %d", got, tt.want)
			}
		})
	}
	assert.Equal(t, 100, Default().TotalMax())
}

func TestCatalog_Sort(t *testing.T) {
	c := Default()
	keys := []string{"zeta", Quiz, "alpha", Homework, Memorization}
	c.Sort(keys)
	assert.Equal(t, []string{Homework, Memorization, Quiz, "alpha", "zeta"}, keys)
}

// Package skill holds the catalog of scored skill categories.
package skill

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Skill keys of the default catalog.
const (
	Homework     = "homework"
	Grammar      = "grammar"
	Vocabulary   = "vocabulary"
	Memorization = "memorization"
	Attendance   = "attendance"
	Writing      = "writing"
	Interaction  = "interaction"
	Quiz         = "quiz"
)

var (
	errEmptyCatalog = errors.New("skill catalog is empty")
	errEmptyKey     = errors.New("skill key is required")
)

// Definition identifies one scoring dimension.
// Priority breaks improvement ties: the lower the value, the higher the priority.
type Definition struct {
	Key      string `json:"key" mapstructure:"key"`
	MaxScore int    `json:"max_score" mapstructure:"max_score"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// UnknownSkillError is returned whenever a skill key has no catalog entry.
type UnknownSkillError struct {
	Key string
}

func (err *UnknownSkillError) Error() string {
	return fmt.Sprintf("unknown skill %q", err.Key)
}

// IsUnknownSkill reports whether the cause of err is an *UnknownSkillError.
func IsUnknownSkill(err error) bool {
	_, ok := errors.Cause(err).(*UnknownSkillError)
	return ok
}

// Catalog is an immutable snapshot of skill definitions.
// It is passed explicitly to every computation so that a report is always
// evaluated against the catalog values it was computed with.
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// DefaultDefinitions returns the skills the school started with.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Key: Homework, MaxScore: 10, Priority: 5},
		{Key: Grammar, MaxScore: 5, Priority: 2},
		{Key: Vocabulary, MaxScore: 5, Priority: 3},
		{Key: Memorization, MaxScore: 15, Priority: 1},
		{Key: Attendance, MaxScore: 10, Priority: 7},
		{Key: Writing, MaxScore: 5, Priority: 4},
		{Key: Interaction, MaxScore: 5, Priority: 6},
		{Key: Quiz, MaxScore: 35, Priority: 8},
	}
}

// Default returns the catalog built from DefaultDefinitions.
func Default() *Catalog {
	c, err := NewCatalog(DefaultDefinitions()...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates defs and builds a Catalog keeping their order.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errEmptyCatalog
	}
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		def.Key = strings.ToLower(strings.TrimSpace(def.Key))
		if def.Key == "" {
			return nil, errEmptyKey
		}
		if _, dup := c.index[def.Key]; dup {
			return nil, errors.Errorf("duplicate skill %q", def.Key)
		}
		if def.MaxScore <= 0 {
			return nil, errors.Errorf("skill %q: max score must be positive, got %d", def.Key, def.MaxScore)
		}
		c.index[def.Key] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, nil
}

// List returns all the configured skills in a stable order.
func (c *Catalog) List() []Definition {
	defs := make([]Definition, len(c.defs))
	copy(defs, c.defs)
	return defs
}

// Keys returns the skill keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		keys = append(keys, def.Key)
	}
	return keys
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Get returns the definition of key.
func (c *Catalog) Get(key string) (Definition, error) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, &UnknownSkillError{Key: key}
	}
	return c.defs[i], nil
}

func (c *Catalog) MaxScoreOf(key string) (int, error) {
	def, err := c.Get(key)
	if err != nil {
		return 0, err
	}
	return def.MaxScore, nil
}

func (c *Catalog) PriorityOf(key string) (int, error) {
	def, err := c.Get(key)
	if err != nil {
		return 0, err
	}
	return def.Priority, nil
}

// TotalMaxScore sums the max scores of exactly the given keys, each key counted once.
// This is the only denominator a percentage may be computed with.
func (c *Catalog) TotalMaxScore(keys ...string) (int, error) {
	var total int
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		max, err := c.MaxScoreOf(key)
		if err != nil {
			return 0, err
		}
		total += max
	}
	return total, nil
}

// TotalMax sums the max scores of every skill in the catalog.
func (c *Catalog) TotalMax() int {
	var total int
	for _, def := range c.defs {
		total += def.MaxScore
	}
	return total
}

// Sort orders keys by catalog position; unknown keys go last, alphabetically.
func (c *Catalog) Sort(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		ii, iok := c.index[keys[i]]
		ji, jok := c.index[keys[j]]
		switch {
		case iok && jok:
			return ii < ji
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
}

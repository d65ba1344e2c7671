// Package dummydb implements the repositories in memory, for tests and local runs.
package dummydb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/lesson"
	"github.com/trezcool/tahsil/core/message"
	"github.com/trezcool/tahsil/core/plan"
	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
)

type (
	DB struct {
		user       *userTable
		student    *studentTable
		lesson     *lessonTable
		assessment *assessmentTable
		plan       *planTable
		message    *messageTable
		snapshot   *snapshotTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table   map[string]*student.Student
		parents map[string]map[string]bool // {student ID: {parent ID}}
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*lesson.Lesson
	}

	assessmentTable struct {
		sync.RWMutex
		table map[string]*assessment.Assessment
	}

	planTable struct {
		sync.RWMutex
		table map[string]*plan.Plan
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*message.Message
	}

	snapshotTable struct {
		sync.RWMutex
		table map[string]*report.Snapshot
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		student:    &studentTable{table: make(map[string]*student.Student), parents: make(map[string]map[string]bool)},
		lesson:     &lessonTable{table: make(map[string]*lesson.Lesson)},
		assessment: &assessmentTable{table: make(map[string]*assessment.Assessment)},
		plan:       &planTable{table: make(map[string]*plan.Plan)},
		message:    &messageTable{table: make(map[string]*message.Message)},
		snapshot:   &snapshotTable{table: make(map[string]*report.Snapshot)},
	}
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// compare returns -1, 0 or 1 as item i sorts before, with or after item j on one field.
type compare func(i, j int) int

// sortBy sorts slice by the orderings known by fields, falling back to dflt.
func sortBy(slice interface{}, ordering []core.DBOrdering, fields map[string]compare, dflt []core.DBOrdering) {
	var known []core.DBOrdering
	for _, ord := range ordering {
		if _, ok := fields[ord.Field]; ok {
			known = append(known, ord)
		}
	}
	if len(known) == 0 {
		known = dflt
	}
	sort.SliceStable(slice, func(i, j int) bool {
		for _, ord := range known {
			c := fields[ord.Field](i, j)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpString(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func cmpTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// inRange tells if t is within the inclusive dates, zero bounds being open.
func inRange(t, from, to time.Time) bool {
	d := core.Date(t)
	if !from.IsZero() && d.Before(core.Date(from)) {
		return false
	}
	if !to.IsZero() && d.After(core.Date(to)) {
		return false
	}
	return true
}

package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/plan"
)

type planRepository struct {
	db *planTable
}

var _ plan.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *DB) *planRepository {
	return &planRepository{db: db.plan}
}

func planKey(p plan.Plan) plan.Key {
	return plan.Key{TeacherID: p.TeacherID, GradeLevel: p.GradeLevel, GroupType: p.GroupType, WeekStart: core.Date(p.WeekStart)}
}

// copyPlan keeps the stored days out of reach of the callers.
func copyPlan(p plan.Plan) plan.Plan {
	days := make([]plan.Day, len(p.Days))
	for i, d := range p.Days {
		if d.Evaluations != nil {
			evals := make(map[string]bool, len(d.Evaluations))
			for k, v := range d.Evaluations {
				evals[k] = v
			}
			d.Evaluations = evals
		}
		days[i] = d
	}
	p.Days = days
	return p
}

func (repo *planRepository) ReplacePlan(_ context.Context, p plan.Plan) (plan.Plan, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.WeekStart = core.Date(p.WeekStart)
	for _, orig := range repo.db.table {
		if planKey(*orig) == planKey(p) {
			p.ID = orig.ID
			p.CreatedAt = orig.CreatedAt
			stored := copyPlan(p)
			repo.db.table[p.ID] = &stored
			return p, nil
		}
	}
	p.ID = uuid.New().String()
	stored := copyPlan(p)
	repo.db.table[p.ID] = &stored
	return p, nil
}

func (repo *planRepository) GetPlan(_ context.Context, key plan.Key) (plan.Plan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	key.WeekStart = core.Date(key.WeekStart)
	for _, p := range repo.db.table {
		if planKey(*p) == key {
			return copyPlan(*p), nil
		}
	}
	return plan.Plan{}, plan.ErrNotFound
}

func (repo *planRepository) QueryPlans(_ context.Context, filter *plan.QueryFilter) ([]plan.Plan, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	plans := make([]plan.Plan, 0)
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.TeacherID != "" && p.TeacherID != filter.TeacherID {
				continue
			}
			if filter.GradeLevel != "" && p.GradeLevel != filter.GradeLevel {
				continue
			}
			if filter.GroupType != "" && p.GroupType != filter.GroupType {
				continue
			}
			if !inRange(p.WeekStart, filter.From, filter.To) {
				continue
			}
		}
		plans = append(plans, copyPlan(*p))
	}

	sortBy(plans, nil, map[string]compare{
		"week_start":  func(i, j int) int { return cmpTime(plans[i].WeekStart, plans[j].WeekStart) },
		"grade_level": func(i, j int) int { return cmpString(plans[i].GradeLevel, plans[j].GradeLevel) },
		"group_type":  func(i, j int) int { return cmpString(plans[i].GroupType, plans[j].GroupType) },
	}, []core.DBOrdering{{Field: "week_start"}, {Field: "grade_level", Ascending: true}, {Field: "group_type", Ascending: true}})
	return plans, nil
}

func (repo *planRepository) DeletePlans(_ context.Context, teacherID string, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		p, ok := repo.db.table[id]
		if !ok || (teacherID != "" && p.TeacherID != teacherID) {
			continue
		}
		delete(repo.db.table, id)
		n++
	}
	return n, nil
}

package plan

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("plan not found")

type (
	Repository interface {
		// ReplacePlan stores p in place of any plan with the same Key.
		ReplacePlan(ctx context.Context, p Plan) (Plan, error)
		GetPlan(ctx context.Context, key Key) (Plan, error)
		// QueryPlans lists plans, most recent week first.
		QueryPlans(ctx context.Context, filter *QueryFilter) ([]Plan, error)
		// DeletePlans deletes the plans of ids owned by teacherID, or by anyone if teacherID is empty.
		DeletePlans(ctx context.Context, teacherID string, ids []string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save replaces the plan of the week; sp must have been validated.
func (svc *Service) Save(ctx context.Context, sp SavePlan) (Plan, error) {
	now := time.Now().UTC()
	key := sp.Key
	key.clean()
	p, err := svc.repo.ReplacePlan(ctx, Plan{
		TeacherID:  key.TeacherID,
		GradeLevel: key.GradeLevel,
		GroupType:  key.GroupType,
		WeekStart:  key.WeekStart,
		Days:       fill(sp.Days),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return p, errors.Wrap(err, "replacing plan")
}

// Get returns the plan of the week. A week without plan gets an empty one, not an error.
func (svc *Service) Get(ctx context.Context, key Key) (Plan, error) {
	key.clean()
	p, err := svc.repo.GetPlan(ctx, key)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Plan{}, errors.Wrap(err, "getting plan")
		}
		p = Plan{
			TeacherID:  key.TeacherID,
			GradeLevel: key.GradeLevel,
			GroupType:  key.GroupType,
			WeekStart:  key.WeekStart,
		}
	}
	p.Days = fill(p.Days)
	return p, nil
}

// Archive lists the past plans matching filter, most recent week first.
func (svc *Service) Archive(ctx context.Context, filter *QueryFilter) ([]Plan, error) {
	plans, err := svc.repo.QueryPlans(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	for i := range plans {
		plans[i].Days = fill(plans[i].Days)
	}
	return plans, nil
}

// Delete removes plans of a teacher; an empty teacherID removes them whoever owns them.
func (svc *Service) Delete(ctx context.Context, teacherID string, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := svc.repo.DeletePlans(ctx, teacherID, ids)
	return n, errors.Wrap(err, "deleting plans")
}

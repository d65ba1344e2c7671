package assessment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/scoring"
)

var ErrNotFound = errors.New("assessment not found")

type (
	Repository interface {
		// UpsertAssessment creates or replaces the assessment of the same student and lesson,
		// or of the same student and date when no lesson is linked. ID and CreatedAt of a
		// replaced assessment are kept.
		UpsertAssessment(ctx context.Context, asm Assessment) (Assessment, error)
		// QueryAssessments applies AND operation on available QueryFilter fields.
		// Without ordering, the most recent assessments come first.
		QueryAssessments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assessment, error)
		CountAssessments(ctx context.Context, filter *QueryFilter) (int, error)
		GetAssessment(ctx context.Context, id string) (Assessment, error)
		DeleteAssessments(ctx context.Context, filter DeleteFilter) (int, error)
	}

	// DeleteFilter selects assessments by ID, student or lesson. At least one must be given.
	DeleteFilter struct {
		IDs        []string
		StudentIDs []string
		LessonIDs  []string
	}

	Service struct {
		repo Repository
		agg  *scoring.Aggregator
	}
)

func (df DeleteFilter) IsEmpty() bool {
	return len(df.IDs) == 0 && len(df.StudentIDs) == 0 && len(df.LessonIDs) == 0
}

func NewService(repo Repository, agg *scoring.Aggregator) *Service {
	return &Service{repo: repo, agg: agg}
}

// Upsert records an assessment, replacing the previous one of the same student and lesson.
// Scores are validated again here since na may not come through the API.
func (svc *Service) Upsert(ctx context.Context, na NewAssessment) (Assessment, error) {
	if err := svc.agg.Validate(na.Scores); err != nil {
		return Assessment{}, errors.Wrap(err, "validating scores")
	}
	rec, err := na.record()
	if err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	asm, err := svc.repo.UpsertAssessment(ctx, Assessment{
		TeacherID: na.TeacherID,
		Record:    rec,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return asm, errors.Wrap(err, "upserting assessment")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, filter, ordering)
}

func (svc *Service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountAssessments(ctx, filter)
}

// Recent returns the n most recent assessments of a student, most recent first.
func (svc *Service) Recent(ctx context.Context, studentID string, n int) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, &QueryFilter{StudentIDs: []string{studentID}, Limit: n}, nil)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assessment, error) {
	return svc.repo.GetAssessment(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteAssessments(ctx, DeleteFilter{IDs: ids})
	return errors.Wrap(err, "deleting assessments")
}

func (svc *Service) DeleteByStudent(ctx context.Context, studentIDs ...string) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	n, err := svc.repo.DeleteAssessments(ctx, DeleteFilter{StudentIDs: studentIDs})
	return n, errors.Wrap(err, "deleting student assessments")
}

func (svc *Service) DeleteByLesson(ctx context.Context, lessonIDs ...string) (int, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	n, err := svc.repo.DeleteAssessments(ctx, DeleteFilter{LessonIDs: lessonIDs})
	return n, errors.Wrap(err, "deleting lesson assessments")
}

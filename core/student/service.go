package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.FirstName or Student.LastName.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		CountStudents(ctx context.Context, filter *QueryFilter) (int, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids []string) (int, error)
		LinkParent(ctx context.Context, studentID, parentID string) error
		UnlinkParent(ctx context.Context, studentID, parentID string) error
		HasParent(ctx context.Context, studentID, parentID string) (bool, error)
		QueryParentIDs(ctx context.Context, studentID string) ([]string, error)
	}

	// AssessmentRemover deletes the assessments of students being deleted.
	AssessmentRemover interface {
		DeleteByStudent(ctx context.Context, studentIDs ...string) (int, error)
	}

	Service struct {
		repo        Repository
		assessments AssessmentRemover
	}
)

func NewService(repo Repository, assessments AssessmentRemover) *Service {
	return &Service{repo: repo, assessments: assessments}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std, err := svc.repo.CreateStudent(ctx, Student{
		TeacherID:  ns.TeacherID,
		FirstName:  ns.FirstName,
		LastName:   ns.LastName,
		GradeLevel: ns.GradeLevel,
		GroupType:  ns.GroupType,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return std, errors.Wrap(err, "creating student")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountStudents(ctx, filter)
}

// QueryByParent lists the children of a parent.
func (svc *Service) QueryByParent(ctx context.Context, parentID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, &QueryFilter{ParentID: parentID}, []core.DBOrdering{{Field: "first_name", Ascending: true}})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, orig Student, us UpdateStudent) (Student, error) {
	std := us.apply(orig)
	std.UpdatedAt = time.Now().UTC()
	std, err := svc.repo.UpdateStudent(ctx, std)
	return std, errors.Wrap(err, "updating student")
}

// Delete removes students together with all their assessments.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := svc.assessments.DeleteByStudent(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting assessments")
	}
	_, err := svc.repo.DeleteStudentsByID(ctx, ids)
	return errors.Wrap(err, "deleting students")
}

// LinkParent gives a parent access to a student's reports and messages.
func (svc *Service) LinkParent(ctx context.Context, studentID, parentID string) error {
	if _, err := svc.repo.GetStudent(ctx, studentID); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.LinkParent(ctx, studentID, parentID), "linking parent")
}

func (svc *Service) UnlinkParent(ctx context.Context, studentID, parentID string) error {
	return errors.Wrap(svc.repo.UnlinkParent(ctx, studentID, parentID), "unlinking parent")
}

func (svc *Service) IsParentOf(ctx context.Context, parentID, studentID string) (bool, error) {
	return svc.repo.HasParent(ctx, studentID, parentID)
}

// ParentIDs lists the users linked to a student as parents.
func (svc *Service) ParentIDs(ctx context.Context, studentID string) ([]string, error) {
	return svc.repo.QueryParentIDs(ctx, studentID)
}

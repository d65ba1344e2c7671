package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
)

var ErrNotFound = errors.New("lesson not found")

type (
	Repository interface {
		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		QueryLessons(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Lesson, error)
		CountLessons(ctx context.Context, filter *QueryFilter) (int, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLessonsByID(ctx context.Context, ids []string) (int, error)
	}

	// AssessmentRemover deletes the assessments of lessons being deleted.
	AssessmentRemover interface {
		DeleteByLesson(ctx context.Context, lessonIDs ...string) (int, error)
	}

	Service struct {
		repo        Repository
		assessments AssessmentRemover
	}
)

func NewService(repo Repository, assessments AssessmentRemover) *Service {
	return &Service{repo: repo, assessments: assessments}
}

func (svc *Service) Create(ctx context.Context, nl NewLesson) (Lesson, error) {
	date, err := core.ParseDate(nl.Date)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "parsing lesson date")
	}
	now := time.Now().UTC()
	lsn, err := svc.repo.CreateLesson(ctx, Lesson{
		TeacherID:   nl.TeacherID,
		Title:       nl.Title,
		Description: nl.Description,
		Date:        date,
		StartTime:   nl.StartTime,
		EndTime:     nl.EndTime,
		GradeLevel:  nl.GradeLevel,
		GroupType:   nl.GroupType,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return lsn, errors.Wrap(err, "creating lesson")
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Lesson, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "date"}, {Field: "start_time"}}
	}
	return svc.repo.QueryLessons(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

// CountBetween counts the lessons a teacher gives between two dates, both included.
func (svc *Service) CountBetween(ctx context.Context, teacherID string, from, to time.Time) (int, error) {
	return svc.repo.CountLessons(ctx, &QueryFilter{TeacherID: teacherID, From: core.Date(from), To: core.Date(to)})
}

// Update expects ul to be validated against orig.
func (svc *Service) Update(ctx context.Context, orig Lesson, ul UpdateLesson) (Lesson, error) {
	date, err := core.ParseDate(ul.Date)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "parsing lesson date")
	}
	lsn := orig
	lsn.Title = ul.Title
	lsn.Date = date
	lsn.StartTime = ul.StartTime
	lsn.EndTime = ul.EndTime
	lsn.GradeLevel = ul.GradeLevel
	lsn.GroupType = ul.GroupType
	if ul.Description != nil {
		lsn.Description = core.CleanString(*ul.Description)
	}
	lsn.UpdatedAt = time.Now().UTC()

	lsn, err = svc.repo.UpdateLesson(ctx, lsn)
	return lsn, errors.Wrap(err, "updating lesson")
}

// Delete removes lessons together with their assessments.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := svc.assessments.DeleteByLesson(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting assessments")
	}
	_, err := svc.repo.DeleteLessonsByID(ctx, ids)
	return errors.Wrap(err, "deleting lessons")
}

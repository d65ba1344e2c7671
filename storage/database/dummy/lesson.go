package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) *lessonRepository {
	return &lessonRepository{db: db.lesson}
}

func matchLesson(lsn lesson.Lesson, filter *lesson.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.TeacherID != "" && lsn.TeacherID != filter.TeacherID {
		return false
	}
	if filter.GradeLevel != "" && lsn.GradeLevel != filter.GradeLevel {
		return false
	}
	if filter.GroupType != "" && lsn.GroupType != filter.GroupType {
		return false
	}
	return inRange(lsn.Date, filter.From, filter.To)
}

func (repo *lessonRepository) CreateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lsn.ID = uuid.New().String()
	repo.db.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *lessonRepository) QueryLessons(_ context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering) ([]lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]lesson.Lesson, 0)
	for _, lsn := range repo.db.table {
		if matchLesson(*lsn, filter) {
			lessons = append(lessons, *lsn)
		}
	}

	sortBy(lessons, ordering, map[string]compare{
		"title":      func(i, j int) int { return cmpString(lessons[i].Title, lessons[j].Title) },
		"date":       func(i, j int) int { return cmpTime(lessons[i].Date, lessons[j].Date) },
		"start_time": func(i, j int) int { return cmpString(lessons[i].StartTime, lessons[j].StartTime) },
		"created_at": func(i, j int) int { return cmpTime(lessons[i].CreatedAt, lessons[j].CreatedAt) },
	}, []core.DBOrdering{{Field: "date", Ascending: true}, {Field: "start_time", Ascending: true}})
	return lessons, nil
}

func (repo *lessonRepository) CountLessons(_ context.Context, filter *lesson.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, lsn := range repo.db.table {
		if matchLesson(*lsn, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *lessonRepository) GetLesson(_ context.Context, id string) (lesson.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lsn, ok := repo.db.table[id]; ok {
		return *lsn, nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) UpdateLesson(_ context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[lsn.ID]; !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	repo.db.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *lessonRepository) DeleteLessonsByID(_ context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

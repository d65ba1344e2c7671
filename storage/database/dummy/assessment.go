package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTable
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db.assessment}
}

func matchAssessment(asm assessment.Assessment, filter *assessment.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.StudentIDs) > 0 && !contains(filter.StudentIDs, asm.StudentID) {
		return false
	}
	if filter.LessonID != "" && asm.LessonID.String != filter.LessonID {
		return false
	}
	if filter.TeacherID != "" && asm.TeacherID != filter.TeacherID {
		return false
	}
	if filter.WithNotes && asm.TeacherNotes == "" {
		return false
	}
	return inRange(asm.Date, filter.From, filter.To)
}

// sameSlot tells if a and b are assessments of the same student and lesson, or lesson date.
func sameSlot(a, b assessment.Assessment) bool {
	if a.StudentID != b.StudentID || a.LessonID.Valid != b.LessonID.Valid {
		return false
	}
	if a.LessonID.Valid {
		return a.LessonID.String == b.LessonID.String
	}
	return core.Date(a.Date).Equal(core.Date(b.Date))
}

func (repo *assessmentRepository) UpsertAssessment(_ context.Context, asm assessment.Assessment) (assessment.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, orig := range repo.db.table {
		if sameSlot(*orig, asm) {
			asm.ID = orig.ID
			asm.CreatedAt = orig.CreatedAt
			repo.db.table[asm.ID] = &asm
			return asm, nil
		}
	}
	asm.ID = uuid.New().String()
	repo.db.table[asm.ID] = &asm
	return asm, nil
}

func (repo *assessmentRepository) QueryAssessments(_ context.Context, filter *assessment.QueryFilter, ordering []core.DBOrdering) ([]assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asms := make([]assessment.Assessment, 0)
	for _, asm := range repo.db.table {
		if matchAssessment(*asm, filter) {
			asms = append(asms, *asm)
		}
	}

	sortBy(asms, ordering, map[string]compare{
		"date":       func(i, j int) int { return cmpTime(asms[i].Date, asms[j].Date) },
		"created_at": func(i, j int) int { return cmpTime(asms[i].CreatedAt, asms[j].CreatedAt) },
		"updated_at": func(i, j int) int { return cmpTime(asms[i].UpdatedAt, asms[j].UpdatedAt) },
	}, []core.DBOrdering{{Field: "date"}, {Field: "created_at"}})

	if filter != nil && filter.Limit > 0 && len(asms) > filter.Limit {
		asms = asms[:filter.Limit]
	}
	return asms, nil
}

func (repo *assessmentRepository) CountAssessments(_ context.Context, filter *assessment.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, asm := range repo.db.table {
		if matchAssessment(*asm, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *assessmentRepository) GetAssessment(_ context.Context, id string) (assessment.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asm, ok := repo.db.table[id]; ok {
		return *asm, nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) DeleteAssessments(_ context.Context, filter assessment.DeleteFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, nil
	}
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for id, asm := range repo.db.table {
		if len(filter.IDs) > 0 && !contains(filter.IDs, id) {
			continue
		}
		if len(filter.StudentIDs) > 0 && !contains(filter.StudentIDs, asm.StudentID) {
			continue
		}
		if len(filter.LessonIDs) > 0 && !(asm.LessonID.Valid && contains(filter.LessonIDs, asm.LessonID.String)) {
			continue
		}
		delete(repo.db.table, id)
		n++
	}
	return n, nil
}

package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

// match must be called with the table locked.
func (repo *studentRepository) match(std student.Student, filter *student.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" &&
		!(containsFold(std.FirstName, filter.Search) || containsFold(std.LastName, filter.Search) || containsFold(std.FullName(), filter.Search)) {
		return false
	}
	if len(filter.IDs) > 0 && !contains(filter.IDs, std.ID) {
		return false
	}
	if filter.TeacherID != "" && std.TeacherID != filter.TeacherID {
		return false
	}
	if filter.ParentID != "" && !repo.db.parents[std.ID][filter.ParentID] {
		return false
	}
	if filter.GradeLevel != "" && std.GradeLevel != filter.GradeLevel {
		return false
	}
	if filter.GroupType != "" && std.GroupType != filter.GroupType {
		return false
	}
	return true
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	std.ID = uuid.New().String()
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.db.table {
		if repo.match(*std, filter) {
			students = append(students, *std)
		}
	}

	sortBy(students, ordering, map[string]compare{
		"first_name":  func(i, j int) int { return cmpString(students[i].FirstName, students[j].FirstName) },
		"last_name":   func(i, j int) int { return cmpString(students[i].LastName, students[j].LastName) },
		"grade_level": func(i, j int) int { return cmpString(students[i].GradeLevel, students[j].GradeLevel) },
		"group_type":  func(i, j int) int { return cmpString(students[i].GroupType, students[j].GroupType) },
		"created_at":  func(i, j int) int { return cmpTime(students[i].CreatedAt, students[j].CreatedAt) },
	}, []core.DBOrdering{{Field: "first_name", Ascending: true}, {Field: "last_name", Ascending: true}})
	return students, nil
}

func (repo *studentRepository) CountStudents(_ context.Context, filter *student.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, std := range repo.db.table {
		if repo.match(*std, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.db.parents, id)
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) LinkParent(_ context.Context, studentID, parentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.db.parents[studentID] == nil {
		repo.db.parents[studentID] = make(map[string]bool)
	}
	repo.db.parents[studentID][parentID] = true
	return nil
}

func (repo *studentRepository) UnlinkParent(_ context.Context, studentID, parentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.parents[studentID], parentID)
	return nil
}

func (repo *studentRepository) HasParent(_ context.Context, studentID, parentID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.parents[studentID][parentID], nil
}

func (repo *studentRepository) QueryParentIDs(_ context.Context, studentID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0, len(repo.db.parents[studentID]))
	for id := range repo.db.parents[studentID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

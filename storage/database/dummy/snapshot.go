package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/report"
)

type snapshotRepository struct {
	db *snapshotTable
}

var _ report.SnapshotRepository = (*snapshotRepository)(nil) // interface compliance check

func NewSnapshotRepository(db *DB) *snapshotRepository {
	return &snapshotRepository{db: db.snapshot}
}

func (repo *snapshotRepository) ReplaceSnapshots(_ context.Context, snaps []report.Snapshot) ([]report.Snapshot, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	saved := make([]report.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		snap.WeekStart = core.Date(snap.WeekStart)
		snap.ID = uuid.New().String()
		for id, orig := range repo.db.table {
			if orig.StudentID == snap.StudentID && orig.WeekStart.Equal(snap.WeekStart) {
				snap.ID = id
				break
			}
		}
		stored := snap
		repo.db.table[snap.ID] = &stored
		saved = append(saved, snap)
	}
	return saved, nil
}

func (repo *snapshotRepository) QuerySnapshots(_ context.Context, filter *report.SnapshotFilter) ([]report.Snapshot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	snaps := make([]report.Snapshot, 0)
	for _, snap := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && snap.StudentID != filter.StudentID {
				continue
			}
			if filter.TeacherID != "" && snap.TeacherID != filter.TeacherID {
				continue
			}
			if !inRange(snap.WeekStart, filter.From, filter.To) {
				continue
			}
		}
		snaps = append(snaps, *snap)
	}

	sortBy(snaps, nil, map[string]compare{
		"week_start": func(i, j int) int { return cmpTime(snaps[i].WeekStart, snaps[j].WeekStart) },
		"student_id": func(i, j int) int { return cmpString(snaps[i].StudentID, snaps[j].StudentID) },
	}, []core.DBOrdering{{Field: "week_start"}, {Field: "student_id", Ascending: true}})

	if filter != nil && filter.Limit > 0 && len(snaps) > filter.Limit {
		snaps = snaps[:filter.Limit]
	}
	return snaps, nil
}

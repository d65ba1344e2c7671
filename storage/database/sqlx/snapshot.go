package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/report"
)

const snapshotColumns = `id, student_id, teacher_id, week_start, percentage, level, report, created_at`

type snapshotRow struct {
	ID         string         `db:"id"`
	StudentID  string         `db:"student_id"`
	TeacherID  string         `db:"teacher_id"`
	WeekStart  time.Time      `db:"week_start"`
	Percentage int            `db:"percentage"`
	Level      string         `db:"level"`
	Report     types.JSONText `db:"report"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (row snapshotRow) snapshot() (report.Snapshot, error) {
	snap := report.Snapshot{
		ID:         row.ID,
		StudentID:  row.StudentID,
		TeacherID:  row.TeacherID,
		WeekStart:  core.Date(row.WeekStart),
		Percentage: row.Percentage,
		Level:      report.Level(row.Level),
		CreatedAt:  row.CreatedAt,
	}
	if err := row.Report.Unmarshal(&snap.Report); err != nil {
		return report.Snapshot{}, errors.Wrap(err, "decoding snapshot report")
	}
	return snap, nil
}

type snapshotRepository struct {
	db *sqlx.DB
}

var _ report.SnapshotRepository = (*snapshotRepository)(nil) // interface compliance check

func NewSnapshotRepository(db *sqlx.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// ReplaceSnapshots upserts all snaps in one transaction.
func (repo *snapshotRepository) ReplaceSnapshots(ctx context.Context, snaps []report.Snapshot) ([]report.Snapshot, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO report_snapshot (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, week_start) DO UPDATE SET
			teacher_id = EXCLUDED.teacher_id, percentage = EXCLUDED.percentage, level = EXCLUDED.level,
			report = EXCLUDED.report, created_at = EXCLUDED.created_at
		RETURNING ` + snapshotColumns

	saved := make([]report.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		data, err := json.Marshal(snap.Report)
		if err != nil {
			return nil, errors.Wrap(err, "encoding snapshot report")
		}
		var row snapshotRow
		err = tx.GetContext(ctx, &row, q,
			uuid.New().String(), snap.StudentID, snap.TeacherID, core.Date(snap.WeekStart),
			snap.Percentage, string(snap.Level), types.JSONText(data), snap.CreatedAt.UTC())
		if err != nil {
			return nil, errors.Wrap(err, "upserting snapshot")
		}
		s, err := row.snapshot()
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing snapshots")
	}
	return saved, nil
}

func (repo *snapshotRepository) QuerySnapshots(ctx context.Context, filter *report.SnapshotFilter) ([]report.Snapshot, error) {
	var qry query
	q := `SELECT ` + snapshotColumns + ` FROM report_snapshot`
	if filter != nil {
		if filter.StudentID != "" {
			qry.where("student_id::text = ?", filter.StudentID)
		}
		if filter.TeacherID != "" {
			qry.where("teacher_id::text = ?", filter.TeacherID)
		}
		if !filter.From.IsZero() {
			qry.where("week_start >= ?", core.Date(filter.From))
		}
		if !filter.To.IsZero() {
			qry.where("week_start <= ?", core.Date(filter.To))
		}
		q += qry.String() + ` ORDER BY week_start DESC, student_id` + limit(filter.Limit)
	} else {
		q += ` ORDER BY week_start DESC, student_id`
	}

	var rows []snapshotRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying snapshots")
	}
	snaps := make([]report.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := row.snapshot()
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

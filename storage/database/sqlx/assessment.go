package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
)

const assessmentColumns = `id, teacher_id, student_id, lesson_id, date, scores, teacher_notes, created_at, updated_at`

var assessmentOrdering = map[string]string{
	"date":       "date",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) filter(filter *assessment.QueryFilter) query {
	var qry query
	if filter == nil {
		return qry
	}
	if len(filter.StudentIDs) > 0 {
		qry.whereIn("student_id::text", filter.StudentIDs)
	}
	if filter.LessonID != "" {
		qry.where("lesson_id::text = ?", filter.LessonID)
	}
	if filter.TeacherID != "" {
		qry.where("teacher_id::text = ?", filter.TeacherID)
	}
	if !filter.From.IsZero() {
		qry.where("date >= ?", core.Date(filter.From))
	}
	if !filter.To.IsZero() {
		qry.where("date <= ?", core.Date(filter.To))
	}
	if filter.WithNotes {
		qry.where("teacher_notes <> ''")
	}
	return qry
}

func (repo *assessmentRepository) UpsertAssessment(ctx context.Context, asm assessment.Assessment) (assessment.Assessment, error) {
	asm.ID = uuid.New().String()

	// the conflict target must match one of the partial unique indexes
	conflict := `(student_id, date) WHERE lesson_id IS NULL`
	if asm.LessonID.Valid {
		conflict = `(student_id, lesson_id) WHERE lesson_id IS NOT NULL`
	}
	q := `INSERT INTO assessment (` + assessmentColumns + `)
		VALUES (:id, :teacher_id, :student_id, :lesson_id, :date, :scores, :teacher_notes, :created_at, :updated_at)
		ON CONFLICT ` + conflict + ` DO UPDATE SET
			teacher_id = EXCLUDED.teacher_id, date = EXCLUDED.date, scores = EXCLUDED.scores,
			teacher_notes = EXCLUDED.teacher_notes, updated_at = EXCLUDED.updated_at
		RETURNING ` + assessmentColumns

	rows, err := repo.db.NamedQueryContext(ctx, q, asm)
	if err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "upserting assessment")
	}
	defer func() { _ = rows.Close() }()

	var saved assessment.Assessment
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return assessment.Assessment{}, errors.Wrap(err, "upserting assessment")
		}
		return assessment.Assessment{}, errors.New("upserting assessment: no row returned")
	}
	if err := rows.StructScan(&saved); err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "scanning assessment")
	}
	return saved, nil
}

func (repo *assessmentRepository) QueryAssessments(ctx context.Context, filter *assessment.QueryFilter, ordering []core.DBOrdering) ([]assessment.Assessment, error) {
	qry := repo.filter(filter)
	q := `SELECT ` + assessmentColumns + ` FROM assessment` + qry.String() +
		orderBy(ordering, assessmentOrdering, "date DESC, created_at DESC")
	if filter != nil {
		q += limit(filter.Limit)
	}

	asms := make([]assessment.Assessment, 0)
	if err := repo.db.SelectContext(ctx, &asms, repo.db.Rebind(q), qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	return asms, nil
}

func (repo *assessmentRepository) CountAssessments(ctx context.Context, filter *assessment.QueryFilter) (int, error) {
	qry := repo.filter(filter)
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM assessment`+qry.String()), qry.args...)
	return count, errors.Wrap(err, "counting assessments")
}

func (repo *assessmentRepository) GetAssessment(ctx context.Context, id string) (assessment.Assessment, error) {
	if !isUUID(id) {
		return assessment.Assessment{}, assessment.ErrNotFound
	}
	var asm assessment.Assessment
	if err := repo.db.GetContext(ctx, &asm, `SELECT `+assessmentColumns+` FROM assessment WHERE id = $1`, id); err != nil {
		return assessment.Assessment{}, trapNoRowsErr(err, assessment.ErrNotFound, "getting assessment")
	}
	return asm, nil
}

func (repo *assessmentRepository) DeleteAssessments(ctx context.Context, filter assessment.DeleteFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, nil
	}
	var qry query
	if len(filter.IDs) > 0 {
		qry.whereIn("id::text", filter.IDs)
	}
	if len(filter.StudentIDs) > 0 {
		qry.whereIn("student_id::text", filter.StudentIDs)
	}
	if len(filter.LessonIDs) > 0 {
		qry.whereIn("lesson_id::text", filter.LessonIDs)
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM assessment`+qry.String()), qry.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting assessments")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting assessments")
}

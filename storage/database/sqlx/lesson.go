package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/lesson"
)

const lessonColumns = `id, teacher_id, title, description, date, start_time, end_time, grade_level, group_type, created_at, updated_at`

var lessonOrdering = map[string]string{
	"title":      "title",
	"date":       "date",
	"start_time": "start_time",
	"created_at": "created_at",
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) filter(filter *lesson.QueryFilter) query {
	var qry query
	if filter == nil {
		return qry
	}
	if filter.TeacherID != "" {
		qry.where("teacher_id::text = ?", filter.TeacherID)
	}
	if filter.GradeLevel != "" {
		qry.where("grade_level = ?", filter.GradeLevel)
	}
	if filter.GroupType != "" {
		qry.where("group_type = ?", filter.GroupType)
	}
	if !filter.From.IsZero() {
		qry.where("date >= ?", core.Date(filter.From))
	}
	if !filter.To.IsZero() {
		qry.where("date <= ?", core.Date(filter.To))
	}
	return qry
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	lsn.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO lesson (`+lessonColumns+`)
		VALUES (:id, :teacher_id, :title, :description, :date, :start_time, :end_time,
			:grade_level, :group_type, :created_at, :updated_at)`, lsn)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter, ordering []core.DBOrdering) ([]lesson.Lesson, error) {
	qry := repo.filter(filter)
	q := repo.db.Rebind(`SELECT ` + lessonColumns + ` FROM lesson` + qry.String() +
		orderBy(ordering, lessonOrdering, "date ASC, start_time ASC"))

	lessons := make([]lesson.Lesson, 0)
	if err := repo.db.SelectContext(ctx, &lessons, q, qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return lessons, nil
}

func (repo *lessonRepository) CountLessons(ctx context.Context, filter *lesson.QueryFilter) (int, error) {
	qry := repo.filter(filter)
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM lesson`+qry.String()), qry.args...)
	return count, errors.Wrap(err, "counting lessons")
}

func (repo *lessonRepository) GetLesson(ctx context.Context, id string) (lesson.Lesson, error) {
	if !isUUID(id) {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	var lsn lesson.Lesson
	if err := repo.db.GetContext(ctx, &lsn, `SELECT `+lessonColumns+` FROM lesson WHERE id = $1`, id); err != nil {
		return lesson.Lesson{}, trapNoRowsErr(err, lesson.ErrNotFound, "getting lesson")
	}
	return lsn, nil
}

func (repo *lessonRepository) UpdateLesson(ctx context.Context, lsn lesson.Lesson) (lesson.Lesson, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE lesson SET
		title = :title, description = :description, date = :date, start_time = :start_time,
		end_time = :end_time, grade_level = :grade_level, group_type = :group_type, updated_at = :updated_at
		WHERE id = :id`, lsn)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return lsn, nil
}

func (repo *lessonRepository) DeleteLessonsByID(ctx context.Context, ids []string) (int, error) {
	var qry query
	qry.whereIn("id::text", ids)
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM lesson`+qry.String()), qry.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting lessons")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting lessons")
}

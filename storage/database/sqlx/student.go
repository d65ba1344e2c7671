package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/student"
)

const studentColumns = `id, teacher_id, first_name, last_name, grade_level, group_type, created_at, updated_at`

var studentOrdering = map[string]string{
	"first_name":  "first_name",
	"last_name":   "last_name",
	"grade_level": "grade_level",
	"group_type":  "group_type",
	"created_at":  "created_at",
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) filter(filter *student.QueryFilter) query {
	var qry query
	if filter == nil {
		return qry
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		qry.where("first_name ILIKE ? OR last_name ILIKE ? OR (first_name || ' ' || last_name) ILIKE ?", val, val, val)
	}
	if len(filter.IDs) > 0 {
		qry.whereIn("id::text", filter.IDs)
	}
	if filter.TeacherID != "" {
		qry.where("teacher_id::text = ?", filter.TeacherID)
	}
	if filter.ParentID != "" {
		qry.where("id IN (SELECT student_id FROM student_parent WHERE parent_id::text = ?)", filter.ParentID)
	}
	if filter.GradeLevel != "" {
		qry.where("grade_level = ?", filter.GradeLevel)
	}
	if filter.GroupType != "" {
		qry.where("group_type = ?", filter.GroupType)
	}
	return qry
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO student (`+studentColumns+`)
		VALUES (:id, :teacher_id, :first_name, :last_name, :grade_level, :group_type, :created_at, :updated_at)`, std)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	qry := repo.filter(filter)
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM student` + qry.String() +
		orderBy(ordering, studentOrdering, "first_name ASC, last_name ASC"))

	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, q, qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *studentRepository) CountStudents(ctx context.Context, filter *student.QueryFilter) (int, error) {
	qry := repo.filter(filter)
	var count int
	err := repo.db.GetContext(ctx, &count, repo.db.Rebind(`SELECT COUNT(*) FROM student`+qry.String()), qry.args...)
	return count, errors.Wrap(err, "counting students")
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !isUUID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var std student.Student
	if err := repo.db.GetContext(ctx, &std, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return std, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE student SET
		first_name = :first_name, last_name = :last_name, grade_level = :grade_level,
		group_type = :group_type, updated_at = :updated_at
		WHERE id = :id`, std)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids []string) (int, error) {
	var qry query
	qry.whereIn("id::text", ids)
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM student`+qry.String()), qry.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting students")
}

func (repo *studentRepository) LinkParent(ctx context.Context, studentID, parentID string) error {
	_, err := repo.db.ExecContext(ctx, `INSERT INTO student_parent (student_id, parent_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, studentID, parentID)
	return errors.Wrap(err, "linking parent")
}

func (repo *studentRepository) UnlinkParent(ctx context.Context, studentID, parentID string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student_parent
		WHERE student_id::text = $1 AND parent_id::text = $2`, studentID, parentID)
	return errors.Wrap(err, "unlinking parent")
}

func (repo *studentRepository) HasParent(ctx context.Context, studentID, parentID string) (bool, error) {
	var found bool
	err := repo.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM student_parent
		WHERE student_id::text = $1 AND parent_id::text = $2)`, studentID, parentID)
	return found, errors.Wrap(err, "checking parent")
}

func (repo *studentRepository) QueryParentIDs(ctx context.Context, studentID string) ([]string, error) {
	ids := make([]string, 0)
	err := repo.db.SelectContext(ctx, &ids, `SELECT parent_id::text FROM student_parent
		WHERE student_id::text = $1 ORDER BY parent_id`, studentID)
	return ids, errors.Wrap(err, "querying parents")
}

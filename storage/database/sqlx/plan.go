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
	"github.com/trezcool/tahsil/core/plan"
)

const planColumns = `id, teacher_id, grade_level, group_type, week_start, days, created_at, updated_at`

type planRow struct {
	ID         string         `db:"id"`
	TeacherID  string         `db:"teacher_id"`
	GradeLevel string         `db:"grade_level"`
	GroupType  string         `db:"group_type"`
	WeekStart  time.Time      `db:"week_start"`
	Days       types.JSONText `db:"days"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func newPlanRow(p plan.Plan) (planRow, error) {
	days := p.Days
	if days == nil {
		days = []plan.Day{}
	}
	data, err := json.Marshal(days)
	if err != nil {
		return planRow{}, errors.Wrap(err, "encoding plan days")
	}
	return planRow{
		ID:         p.ID,
		TeacherID:  p.TeacherID,
		GradeLevel: p.GradeLevel,
		GroupType:  p.GroupType,
		WeekStart:  core.Date(p.WeekStart),
		Days:       types.JSONText(data),
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}, nil
}

func (row planRow) plan() (plan.Plan, error) {
	p := plan.Plan{
		ID:         row.ID,
		TeacherID:  row.TeacherID,
		GradeLevel: row.GradeLevel,
		GroupType:  row.GroupType,
		WeekStart:  core.Date(row.WeekStart),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if err := row.Days.Unmarshal(&p.Days); err != nil {
		return plan.Plan{}, errors.Wrap(err, "decoding plan days")
	}
	return p, nil
}

type planRepository struct {
	db *sqlx.DB
}

var _ plan.Repository = (*planRepository)(nil) // interface compliance check

func NewPlanRepository(db *sqlx.DB) *planRepository {
	return &planRepository{db: db}
}

func (repo *planRepository) ReplacePlan(ctx context.Context, p plan.Plan) (plan.Plan, error) {
	p.ID = uuid.New().String()
	row, err := newPlanRow(p)
	if err != nil {
		return plan.Plan{}, err
	}

	q := `INSERT INTO plan (` + planColumns + `)
		VALUES (:id, :teacher_id, :grade_level, :group_type, :week_start, :days, :created_at, :updated_at)
		ON CONFLICT (teacher_id, grade_level, group_type, week_start) DO UPDATE SET
			days = EXCLUDED.days, updated_at = EXCLUDED.updated_at
		RETURNING ` + planColumns
	rows, err := repo.db.NamedQueryContext(ctx, q, row)
	if err != nil {
		return plan.Plan{}, errors.Wrap(err, "replacing plan")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return plan.Plan{}, errors.Wrap(err, "replacing plan")
		}
		return plan.Plan{}, errors.New("replacing plan: no row returned")
	}
	var saved planRow
	if err := rows.StructScan(&saved); err != nil {
		return plan.Plan{}, errors.Wrap(err, "scanning plan")
	}
	return saved.plan()
}

func (repo *planRepository) GetPlan(ctx context.Context, key plan.Key) (plan.Plan, error) {
	var row planRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+planColumns+` FROM plan
		WHERE teacher_id::text = $1 AND grade_level = $2 AND group_type = $3 AND week_start = $4`,
		key.TeacherID, key.GradeLevel, key.GroupType, core.Date(key.WeekStart))
	if err != nil {
		return plan.Plan{}, trapNoRowsErr(err, plan.ErrNotFound, "getting plan")
	}
	return row.plan()
}

func (repo *planRepository) QueryPlans(ctx context.Context, filter *plan.QueryFilter) ([]plan.Plan, error) {
	var qry query
	if filter != nil {
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
			qry.where("week_start >= ?", core.Date(filter.From))
		}
		if !filter.To.IsZero() {
			qry.where("week_start <= ?", core.Date(filter.To))
		}
	}

	var rows []planRow
	q := repo.db.Rebind(`SELECT ` + planColumns + ` FROM plan` + qry.String() + ` ORDER BY week_start DESC, grade_level, group_type`)
	if err := repo.db.SelectContext(ctx, &rows, q, qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying plans")
	}
	plans := make([]plan.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := row.plan()
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (repo *planRepository) DeletePlans(ctx context.Context, teacherID string, ids []string) (int, error) {
	var qry query
	qry.whereIn("id::text", ids)
	if teacherID != "" {
		qry.where("teacher_id::text = ?", teacherID)
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM plan`+qry.String()), qry.args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting plans")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting plans")
}

package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tahsil/core"
)

type Student struct {
	ID         string    `json:"id" db:"id"`
	TeacherID  string    `json:"teacher_id" db:"teacher_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	GradeLevel string    `json:"grade_level" db:"grade_level"`
	GroupType  string    `json:"group_type" db:"group_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	TeacherID  string `json:"teacher_id" validate:"required"`
	FirstName  string `json:"first_name" validate:"required,notblank"`
	LastName   string `json:"last_name" validate:"required,notblank"`
	GradeLevel string `json:"grade_level" validate:"required"`
	GroupType  string `json:"group_type" validate:"required"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.GradeLevel = core.CleanString(ns.GradeLevel)
	ns.GroupType = core.CleanString(ns.GroupType)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Empty fields keep their original value.
type UpdateStudent struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	GradeLevel string `json:"grade_level"`
	GroupType  string `json:"group_type"`
}

func (us *UpdateStudent) apply(orig Student) Student {
	keep := func(val, orig string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return orig
	}
	orig.FirstName = keep(us.FirstName, orig.FirstName)
	orig.LastName = keep(us.LastName, orig.LastName)
	orig.GradeLevel = keep(us.GradeLevel, orig.GradeLevel)
	orig.GroupType = keep(us.GroupType, orig.GroupType)
	return orig
}

type QueryFilter struct {
	Search     string   `query:"search"`
	IDs        []string `query:"id"`
	TeacherID  string   `query:"teacher_id"`
	ParentID   string   `query:"parent_id"`
	GradeLevel string   `query:"grade_level"`
	GroupType  string   `query:"group_type"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.GradeLevel = core.CleanString(qf.GradeLevel)
	qf.GroupType = core.CleanString(qf.GroupType)
}

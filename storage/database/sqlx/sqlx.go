// Package sqlxrepos implements the repositories over PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
)

// query accumulates the conditions of a WHERE clause. Placeholders are "?" until rebound.
type query struct {
	conds []string
	args  []interface{}
}

func (q *query) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

// whereIn matches col against any of vals.
func (q *query) whereIn(col string, vals []string) {
	q.where(col+" = ANY(?)", pq.Array(vals))
}

func (q *query) String() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE (" + strings.Join(q.conds, ") AND (") + ")"
}

// orderBy builds an ORDER BY clause. Only fields in allowed (field -> column) are kept;
// dflt is used when none is left.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func limit(n int) string {
	if n <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(n)
}

// trapNoRowsErr maps the "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUUID tells if id may be looked up in a uuid column.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

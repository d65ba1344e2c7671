package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tahsil/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// DateRange binds the "from" and "to" query params (YYYY-MM-DD, inclusive).
type DateRange struct {
	From time.Time
	To   time.Time
}

func (dr *DateRange) Bind(ctx echo.Context) error {
	var err error
	if dr.From, err = queryDate(ctx, "from"); err != nil {
		return err
	}
	dr.To, err = queryDate(ctx, "to")
	return err
}

// queryDate parses the YYYY-MM-DD query param name; it is zero when missing.
func queryDate(ctx echo.Context, name string) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return time.Time{}, nil
	}
	date, err := core.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: name, Error: "date must be formatted YYYY-MM-DD"})
	}
	return date, nil
}

// queryDateOrToday is like queryDate but defaults to the current UTC date.
func queryDateOrToday(ctx echo.Context, name string) (time.Time, error) {
	date, err := queryDate(ctx, name)
	if err != nil || !date.IsZero() {
		return date, err
	}
	return core.Date(time.Now().UTC()), nil
}

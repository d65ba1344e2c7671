package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/lesson"
	"github.com/trezcool/tahsil/core/report"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/student"
)

type reportApi struct {
	svc      *report.Service
	stdSvc   *student.Service
	lsnSvc   *lesson.Service
	validate *validator.Validate
}

func registerReportAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *report.Service,
	stdSvc *student.Service,
	lsnSvc *lesson.Service,
	validate *validator.Validate,
) {
	api := reportApi{
		svc:      svc,
		stdSvc:   stdSvc,
		lsnSvc:   lsnSvc,
		validate: validate,
	}

	rg := g.Group("/reports", jwt)
	rg.GET("/dashboard", api.dashboard, teacherMiddleware)
	rg.GET("/lessons/:id/roster", api.roster, teacherMiddleware, lessonMiddleware(lsnSvc))
	rg.GET("/snapshots", api.querySnapshots)
	rg.POST("/snapshots", api.snapshotWeek, adminMiddleware())

	sg := rg.Group("/students/:id", studentMiddleware(stdSvc, false))
	sg.GET("/weekly", api.weekly)
	sg.GET("/overview", api.overview)
	sg.GET("/series", api.series)
}

// weekly reports the school week containing the "date" query param (today by default).
// A week without assessments is reported as null.
func (api *reportApi) weekly(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	day, err := queryDateOrToday(ctx, "date")
	if err != nil {
		return err
	}

	rep, err := api.svc.WeeklyReport(ctx.Request().Context(), std.ID, day)
	if err != nil {
		return errors.Wrap(err, "computing weekly report")
	}
	if rep == nil {
		return ctx.JSON(http.StatusOK, nil)
	}
	return ctx.JSON(http.StatusOK, WeeklyReportResponse{PeriodReport: rep, Level: report.LevelOf(rep.Percentage)})
}

func (api *reportApi) overview(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.StudentOverview(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "computing student overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *reportApi) series(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	points, err := api.svc.StudentSeries(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "computing student series")
	}
	if points == nil {
		points = []report.SeriesPoint{}
	}
	return ctx.JSON(http.StatusOK, points)
}

func (api *reportApi) roster(ctx echo.Context) error {
	lsn, err := contextLesson(ctx)
	if err != nil {
		return err
	}
	rst, err := api.svc.LessonRoster(ctx.Request().Context(), lsn.ID)
	if err != nil {
		return errors.Wrap(err, "computing lesson roster")
	}
	return ctx.JSON(http.StatusOK, rst)
}

func (api *reportApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	day, err := queryDateOrToday(ctx, "date")
	if err != nil {
		return err
	}
	teacherID := claims.Subject
	if claims.IsAdmin && ctx.QueryParam("teacher_id") != "" {
		teacherID = ctx.QueryParam("teacher_id")
	}

	db, err := api.svc.TeacherDashboard(ctx.Request().Context(), teacherID, day)
	if err != nil {
		return errors.Wrap(err, "computing teacher dashboard")
	}
	return ctx.JSON(http.StatusOK, db)
}

func (api *reportApi) querySnapshots(ctx echo.Context) error {
	filter := new(report.SnapshotFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []report.Snapshot{})
	}
	dates := new(DateRange)
	if err := dates.Bind(ctx); err != nil {
		return err
	}
	filter.From, filter.To = dates.From, dates.To

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	switch {
	case claims.IsAdmin:
	case claims.IsTeacher:
		filter.TeacherID = claims.Subject
	case claims.IsParent:
		// a parent reads the history of one of their children at a time
		if filter.StudentID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student_id is a required field"})
		}
		if _, err := getStudent(ctx, api.stdSvc, filter.StudentID, false); err != nil {
			return err
		}
	default:
		return errHttpForbidden
	}

	snaps, err := api.svc.QuerySnapshots(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying snapshots")
	}
	if snaps == nil {
		snaps = []report.Snapshot{}
	}
	return ctx.JSON(http.StatusOK, snaps)
}

// snapshotWeek computes the weekly snapshots on demand, as the scheduled job does.
func (api *reportApi) snapshotWeek(ctx echo.Context) error {
	var data SnapshotRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SnapshotRequest")
	}
	data.Week = core.CleanString(data.Week)
	if err := api.validate.Struct(&data); err != nil {
		return err
	}
	week, err := core.ParseDate(data.Week)
	if err != nil {
		return errors.Wrap(err, "parsing week")
	}

	snaps, err := api.svc.SnapshotWeek(ctx.Request().Context(), week)
	if err != nil {
		return errors.Wrap(err, "taking weekly snapshots")
	}
	return ctx.JSON(http.StatusOK, snaps)
}

type (
	WeeklyReportResponse struct {
		*scoring.PeriodReport
		Level report.Level `json:"level"`
	}

	SnapshotRequest struct {
		Week string `json:"week" validate:"required,datetime=2006-01-02"` // any day of the week
	}
)

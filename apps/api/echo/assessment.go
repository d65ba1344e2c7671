package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/assessment"
	"github.com/trezcool/tahsil/core/lesson"
	"github.com/trezcool/tahsil/core/scoring"
	"github.com/trezcool/tahsil/core/student"
)

var errAsmNotFoundInCtx = errors.New("assessment object not found in echo.Context")

type assessmentApi struct {
	svc      *assessment.Service
	stdSvc   *student.Service
	lsnSvc   *lesson.Service
	agg      *scoring.Aggregator
	validate *validator.Validate
}

func registerAssessmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *assessment.Service,
	stdSvc *student.Service,
	lsnSvc *lesson.Service,
	agg *scoring.Aggregator,
	validate *validator.Validate,
) {
	api := assessmentApi{
		svc:      svc,
		stdSvc:   stdSvc,
		lsnSvc:   lsnSvc,
		agg:      agg,
		validate: validate,
	}

	ag := g.Group("/assessments", jwt)
	ag.POST("", api.upsert, teacherMiddleware)
	ag.GET("", api.query)

	// detail endpoints
	ag.DELETE("/:id", api.destroy, teacherMiddleware, api.assessmentMiddleware(true))
	ag.GET("/:id", api.retrieve, api.assessmentMiddleware(false))
}

func (api *assessmentApi) assessmentMiddleware(write bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			asm, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == assessment.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding assessment by ID")
			}
			if _, err := getStudent(ctx, api.stdSvc, asm.StudentID, write); err != nil {
				return err
			}
			ctx.Set(contextObjectKey, asm)
			return next(ctx)
		}
	}
}

// upsert records the scores of a student, replacing those of the same lesson (or day, without lesson).
func (api *assessmentApi) upsert(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}

	std, err := getStudent(ctx, api.stdSvc, core.CleanString(data.StudentID), true)
	if err != nil {
		if err == errHttpNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "unknown student"})
		}
		return err
	}
	data.TeacherID = std.TeacherID
	if lessonID := core.CleanString(data.LessonID); lessonID != "" {
		if _, err := getLesson(ctx, api.lsnSvc, lessonID); err != nil {
			if err == errHttpNotFound {
				return core.NewValidationError(nil, core.FieldError{Field: "lesson_id", Error: "unknown lesson"})
			}
			return err
		}
	}
	if err := data.Validate(api.validate, api.agg); err != nil {
		return err
	}

	asm, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting assessment")
	}
	return ctx.JSON(http.StatusOK, asm)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	filter := new(assessment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assessment.Assessment{})
	}
	dates := new(DateRange)
	if err := dates.Bind(ctx); err != nil {
		return err
	}
	filter.From, filter.To = dates.From, dates.To
	ordering := new(Ordering)
	ordering.Bind(ctx)

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	switch {
	case claims.IsAdmin:
	case claims.IsTeacher:
		filter.TeacherID = claims.Subject
	case claims.IsParent:
		// restricted to their children
		children, err := api.stdSvc.QueryByParent(ctx.Request().Context(), claims.Subject)
		if err != nil {
			return errors.Wrap(err, "querying children")
		}
		filter.StudentIDs = allowedIDs(filter.StudentIDs, children)
		if len(filter.StudentIDs) == 0 {
			return ctx.JSON(http.StatusOK, []assessment.Assessment{})
		}
	default:
		return errHttpForbidden
	}

	asms, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if asms == nil {
		asms = []assessment.Assessment{}
	}
	return ctx.JSON(http.StatusOK, asms)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	asm, ok := ctx.Get(contextObjectKey).(assessment.Assessment)
	if !ok {
		return errors.Wrap(errAsmNotFoundInCtx, "retrieving object from context")
	}
	res, err := api.agg.Evaluate(asm.Record)
	if err != nil {
		return errors.Wrap(err, "evaluating assessment")
	}
	return ctx.JSON(http.StatusOK, AssessmentResponse{Assessment: asm, Result: res})
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	asm, ok := ctx.Get(contextObjectKey).(assessment.Assessment)
	if !ok {
		return errors.Wrap(errAsmNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), asm.ID); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// allowedIDs keeps the requested IDs of students; all of them when none is requested.
func allowedIDs(requested []string, stds []student.Student) []string {
	ids := make([]string, 0, len(stds))
	for _, std := range stds {
		if len(requested) == 0 {
			ids = append(ids, std.ID)
			continue
		}
		for _, id := range requested {
			if id == std.ID {
				ids = append(ids, std.ID)
				break
			}
		}
	}
	return ids
}

type AssessmentResponse struct {
	assessment.Assessment
	Result scoring.Result `json:"result"`
}

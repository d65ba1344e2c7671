package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core/lesson"
)

var errLsnNotFoundInCtx = errors.New("lesson object not found in echo.Context")

type lessonGetter interface {
	GetByID(ctx context.Context, id string) (lesson.Lesson, error)
}

type lessonApi struct {
	svc      *lesson.Service
	validate *validator.Validate
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *lesson.Service, validate *validator.Validate) {
	api := lessonApi{
		svc:      svc,
		validate: validate,
	}

	lg := g.Group("/lessons", jwt, teacherMiddleware)
	lg.POST("", api.create)
	lg.GET("", api.query)

	// detail endpoints
	dg := lg.Group("/:id", lessonMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// getLesson loads the lesson identified by id if the context user owns it (or is an admin).
func getLesson(ctx echo.Context, svc lessonGetter, id string) (lesson.Lesson, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "getting context claims")
	}
	lsn, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == lesson.ErrNotFound {
			return lesson.Lesson{}, errHttpNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "finding lesson by ID")
	}
	if !claims.IsAdmin && lsn.TeacherID != claims.Subject {
		return lesson.Lesson{}, errHttpNotFound
	}
	return lsn, nil
}

func lessonMiddleware(svc lessonGetter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lsn, err := getLesson(ctx, svc, ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, lsn)
			return next(ctx)
		}
	}
}

func contextLesson(ctx echo.Context) (lesson.Lesson, error) {
	lsn, ok := ctx.Get(contextObjectKey).(lesson.Lesson)
	if !ok {
		return lesson.Lesson{}, errors.Wrap(errLsnNotFoundInCtx, "retrieving object from context")
	}
	return lsn, nil
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin || data.TeacherID == "" {
		data.TeacherID = claims.Subject
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lsn, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *lessonApi) query(ctx echo.Context) error {
	filter := new(lesson.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lesson.Lesson{})
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
	if !claims.IsAdmin {
		filter.TeacherID = claims.Subject
	}

	lsns, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lsns == nil {
		lsns = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lsns)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	lsn, err := contextLesson(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) update(ctx echo.Context) error {
	lsn, err := contextLesson(ctx)
	if err != nil {
		return err
	}
	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(lsn, api.validate); err != nil {
		return err
	}

	lsn, err = api.svc.Update(ctx.Request().Context(), lsn, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	lsn, err := contextLesson(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), lsn.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

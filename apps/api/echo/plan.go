package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/plan"
	"github.com/trezcool/tahsil/core/skill"
)

type planApi struct {
	svc      *plan.Service
	catalog  *skill.Catalog
	validate *validator.Validate
}

func registerPlanAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *plan.Service, catalog *skill.Catalog, validate *validator.Validate) {
	api := planApi{
		svc:      svc,
		catalog:  catalog,
		validate: validate,
	}

	pg := g.Group("/plans", jwt, teacherMiddleware)
	pg.GET("", api.retrieve)
	pg.PUT("", api.save)
	pg.DELETE("", api.destroyMultiple)
	pg.GET("/archive", api.archive)
}

// retrieve returns the plan of a class for the week containing "week" (today by default).
// A week never planned is returned with seven empty days.
func (api *planApi) retrieve(ctx echo.Context) error {
	var key plan.Key
	if err := ctx.Bind(&key); err != nil {
		return errors.Wrap(err, "binding to plan.Key")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	key.TeacherID = claims.Subject
	key.GradeLevel = core.CleanString(key.GradeLevel)
	key.GroupType = core.CleanString(key.GroupType)
	if key.WeekStart, err = queryDateOrToday(ctx, "week"); err != nil {
		return err
	}
	if err := api.validate.Struct(&key); err != nil {
		return err
	}

	p, err := api.svc.Get(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "getting plan")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *planApi) save(ctx echo.Context) error {
	var data plan.SavePlan
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SavePlan")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.TeacherID = claims.Subject
	if err := data.Validate(api.validate, api.catalog); err != nil {
		return err
	}

	p, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving plan")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *planApi) archive(ctx echo.Context) error {
	filter := new(plan.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []plan.Plan{})
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
	filter.TeacherID = claims.Subject
	filter.GradeLevel = core.CleanString(filter.GradeLevel)
	filter.GroupType = core.CleanString(filter.GroupType)

	plans, err := api.svc.Archive(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *planApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if _, err := api.svc.Delete(ctx.Request().Context(), claims.Subject, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting plans")
	}
	return ctx.NoContent(http.StatusNoContent)
}

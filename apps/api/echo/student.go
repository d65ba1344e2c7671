package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/student"
	"github.com/trezcool/tahsil/core/user"
)

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc      *student.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *student.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create, teacherMiddleware)
	sg.GET("", api.query)

	// detail endpoints
	dg := sg.Group("/:id", teacherMiddleware, studentMiddleware(svc, true))
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/parents", api.queryParents)
	dg.POST("/parents", api.linkParent)
	dg.DELETE("/parents/:parentId", api.unlinkParent)
	// parents may read: registered after the group, which catches any method on its prefix
	sg.GET("/:id", api.retrieve, studentMiddleware(svc, false))
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(contextObjectKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return std, nil
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// admins may create students on behalf of a teacher
	if !claims.IsAdmin || data.TeacherID == "" {
		data.TeacherID = claims.Subject
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
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
		filter.ParentID = claims.Subject
	default:
		return errHttpForbidden
	}

	stds, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if stds == nil {
		stds = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, stds)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	std, err = api.svc.Update(ctx.Request().Context(), std, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) queryParents(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	ids, err := api.svc.ParentIDs(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying parent IDs")
	}

	parents := make([]user.User, 0, len(ids))
	for _, id := range ids {
		usr, err := api.usrSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return errors.Wrap(err, "finding parent by ID")
		}
		parents = append(parents, usr)
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *studentApi) linkParent(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	var data LinkParentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkParentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	parent, err := api.usrSvc.GetByID(ctx.Request().Context(), data.ParentID)
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "finding parent by ID")
	}
	if err != nil || !parent.IsParent() {
		return core.NewValidationError(nil, core.FieldError{Field: "parent_id", Error: "unknown parent"})
	}

	if err := api.svc.LinkParent(ctx.Request().Context(), std.ID, parent.ID); err != nil {
		return errors.Wrap(err, "linking parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) unlinkParent(ctx echo.Context) error {
	std, err := contextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.UnlinkParent(ctx.Request().Context(), std.ID, ctx.Param("parentId")); err != nil {
		return errors.Wrap(err, "unlinking parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type LinkParentRequest struct {
	ParentID string `json:"parent_id" validate:"required"`
}

package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core/student"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(claims, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// teacherMiddleware lets teachers and admins through.
func teacherMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsTeacher || claims.IsAdmin {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

func parentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsParent {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

type studentGetter interface {
	GetByID(ctx context.Context, id string) (student.Student, error)
	IsParentOf(ctx context.Context, parentID, studentID string) (bool, error)
}

// checkStudentAccess answers "not found" to users who may not see std:
// admins see every student, teachers their own ones, and parents (read only) their children.
func checkStudentAccess(ctx echo.Context, svc studentGetter, std student.Student, write bool) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	switch {
	case claims.IsAdmin:
		return nil
	case claims.IsTeacher && std.TeacherID == claims.Subject:
		return nil
	case claims.IsParent && !write:
		ok, err := svc.IsParentOf(ctx.Request().Context(), claims.Subject, std.ID)
		if err != nil {
			return errors.Wrap(err, "checking parent")
		}
		if ok {
			return nil
		}
	}
	return errHttpNotFound
}

// getStudent loads the student identified by id if the context user may access it.
func getStudent(ctx echo.Context, svc studentGetter, id string, write bool) (student.Student, error) {
	std, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, errHttpNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	if err := checkStudentAccess(ctx, svc, std, write); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

// studentMiddleware sets the student of the ":id" path param as the context object.
func studentMiddleware(svc studentGetter, write bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := getStudent(ctx, svc, ctx.Param("id"), write)
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, std)
			return next(ctx)
		}
	}
}

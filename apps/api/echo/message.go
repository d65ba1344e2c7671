package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/message"
)

var errMsgNotFoundInCtx = errors.New("message object not found in echo.Context")

type messageApi struct {
	svc      *message.Service
	validate *validator.Validate
}

func registerMessageAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *message.Service, validate *validator.Validate) {
	api := messageApi{
		svc:      svc,
		validate: validate,
	}

	mg := g.Group("/messages", jwt)
	mg.POST("", api.send, parentMiddleware)
	mg.GET("", api.query)
	mg.GET("/unread-count", api.unreadCount, teacherMiddleware)

	// detail endpoints
	dg := mg.Group("/:id", teacherMiddleware, api.messageMiddleware)
	dg.GET("", api.retrieve)
	dg.POST("/read", api.markRead)
	dg.POST("/reply", api.reply)
}

// messageMiddleware sets the message of the ":id" path param as the context object.
// Only its recipient may access it.
func (api *messageApi) messageMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		msg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Cause(err) == message.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding message by ID")
		}
		if msg.TeacherID != claims.Subject {
			return errHttpNotFound
		}
		ctx.Set(contextObjectKey, msg)
		return next(ctx)
	}
}

func contextMessage(ctx echo.Context) (message.Message, error) {
	msg, ok := ctx.Get(contextObjectKey).(message.Message)
	if !ok {
		return message.Message{}, errors.Wrap(errMsgNotFoundInCtx, "retrieving object from context")
	}
	return msg, nil
}

func (api *messageApi) send(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.ParentID = claims.Subject
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.Send(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// query lists the inbox of a teacher, or the messages a parent sent about one of their children.
func (api *messageApi) query(ctx echo.Context) error {
	var filter message.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []message.Message{})
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var msgs []message.Message
	switch {
	case claims.IsTeacher:
		msgs, err = api.svc.QueryForTeacher(ctx.Request().Context(), claims.Subject, filter)
	case claims.IsParent:
		if filter.StudentID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student_id is a required field"})
		}
		msgs, err = api.svc.QueryForParent(ctx.Request().Context(), claims.Subject, filter.StudentID)
	default:
		return errHttpForbidden
	}
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *messageApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	n, err := api.svc.UnreadCount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread messages")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *messageApi) retrieve(ctx echo.Context) error {
	msg, err := contextMessage(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msg.ForTeacher())
}

func (api *messageApi) markRead(ctx echo.Context) error {
	msg, err := contextMessage(ctx)
	if err != nil {
		return err
	}
	msg, err = api.svc.MarkRead(ctx.Request().Context(), msg)
	if err != nil {
		return errors.Wrap(err, "marking message read")
	}
	return ctx.JSON(http.StatusOK, msg.ForTeacher())
}

func (api *messageApi) reply(ctx echo.Context) error {
	msg, err := contextMessage(ctx)
	if err != nil {
		return err
	}
	var data message.NewReply
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReply")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err = api.svc.Reply(ctx.Request().Context(), msg, data)
	if err != nil {
		return errors.Wrap(err, "replying to message")
	}
	return ctx.JSON(http.StatusOK, msg.ForTeacher())
}

type CountResponse struct {
	Count int `json:"count"`
}

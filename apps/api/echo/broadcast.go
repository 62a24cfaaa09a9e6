package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/session"
)

type broadcastApi struct {
	svc *broadcast.Service
}

func registerBroadcastAPI(g *echo.Group, svc *broadcast.Service) {
	api := broadcastApi{svc: svc}

	bg := g.Group("/broadcasts")
	bg.GET("", api.history, staffMiddleware())
	bg.POST("", api.send, roleMiddleware(session.RoleAdmin))
	bg.GET("/audiences", api.audiences, roleMiddleware(session.RoleAdmin))
	bg.POST("/preview", api.preview, roleMiddleware(session.RoleAdmin))

	cg := g.Group("/classes", roleMiddleware(session.RoleTeacher))
	cg.GET("/mine", api.classes)
	cg.POST("/messages", api.sendClassMessage)
}

type (
	BroadcastRequest struct {
		Audiences []broadcast.AudienceID `json:"audiences"`
		Title     string                 `json:"title"`
		Body      string                 `json:"body"`
	}

	PreviewResponse struct {
		CanSend         bool                       `json:"canSend"`
		Error           string                     `json:"error,omitempty"`
		Audiences       []broadcast.AudienceOption `json:"audiences"`
		TotalRecipients int                        `json:"totalRecipients"`
		Confirmation    string                     `json:"confirmation"`
	}

	SentResponse struct {
		Broadcast broadcast.Broadcast `json:"broadcast"`
		Message   string              `json:"message"`
	}
)

// Draft selects exactly the requested audience groups.
func (br BroadcastRequest) Draft() (broadcast.Draft, error) {
	aud := broadcast.NewAudience()
	if err := aud.Select(br.Audiences...); err != nil {
		return broadcast.Draft{}, core.NewValidationError(err, core.FieldError{Field: "audiences", Error: err.Error()})
	}
	return broadcast.Draft{Title: br.Title, Body: br.Body, Audience: aud}, nil
}

func (api *broadcastApi) audiences(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, broadcast.DefaultAudienceOptions())
}

func (api *broadcastApi) preview(ctx echo.Context) error {
	var data BroadcastRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BroadcastRequest")
	}
	draft, err := data.Draft()
	if err != nil {
		return err
	}

	resp := PreviewResponse{
		CanSend:         draft.CanSend(),
		Audiences:       draft.Audience.Options(),
		TotalRecipients: draft.Audience.TotalRecipients(),
		Confirmation:    draft.Confirmation(),
	}
	if err = draft.Validate(); err != nil {
		resp.Error = err.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *broadcastApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data BroadcastRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BroadcastRequest")
	}
	draft, err := data.Draft()
	if err != nil {
		return err
	}

	b, err := api.svc.Send(ctx.Request().Context(), usr, draft)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SentResponse{Broadcast: b, Message: b.Message()})
}

func (api *broadcastApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sent, err := api.svc.History(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	if sent == nil {
		sent = []broadcast.Broadcast{}
	}
	return ctx.JSON(http.StatusOK, sent)
}

func (api *broadcastApi) classes(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	classes, err := api.svc.Classes(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *broadcastApi) sendClassMessage(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data broadcast.ClassMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassMessage")
	}

	b, err := api.svc.SendClassMessage(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SentResponse{Broadcast: b, Message: b.Message()})
}

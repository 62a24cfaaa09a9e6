package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/message"
)

type messageApi struct {
	svc *message.Service
}

func registerMessageAPI(g *echo.Group, svc *message.Service) {
	api := messageApi{svc: svc}

	mg := g.Group("/messages/contacts")
	mg.GET("", api.contacts)
	mg.GET("/:id", api.conversation)
	mg.POST("/:id", api.send)
}

type (
	MessageView struct {
		message.Message
		Own bool `json:"own"`
	}

	ConversationResponse struct {
		Contact  message.Contact `json:"contact"`
		Messages []MessageView   `json:"messages"`
		Unread   int             `json:"unread"`
	}

	SendMessageRequest struct {
		Text string `json:"text"`
	}

	SendMessageResponse struct {
		Sent bool `json:"sent"`
	}
)

func (api *messageApi) contacts(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	contacts, err := api.svc.Contacts(ctx.Request().Context(), usr, ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	if contacts == nil {
		contacts = []message.Contact{}
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *messageApi) conversation(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	conv, err := api.svc.Conversation(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}

	contact, _ := conv.Contact()
	resp := ConversationResponse{
		Contact:  contact,
		Messages: make([]MessageView, 0, len(conv.Messages())),
		Unread:   conv.UnreadCount(),
	}
	for _, m := range conv.Messages() {
		resp.Messages = append(resp.Messages, MessageView{Message: m, Own: conv.IsOwn(m)})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// send accepts a chat message without delivering it.
func (api *messageApi) send(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data SendMessageRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendMessageRequest")
	}
	conv, err := api.svc.Conversation(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return err
	}

	conv.SetDraft(data.Text)
	return ctx.JSON(http.StatusAccepted, SendMessageResponse{Sent: conv.Send()})
}

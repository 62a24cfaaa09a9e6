package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/feedback"
)

type feedbackApi struct {
	svc *feedback.Service
}

func registerFeedbackAPI(g *echo.Group, svc *feedback.Service) {
	api := feedbackApi{svc: svc}
	g.POST("/feedback", api.create)
}

type FeedbackResponse struct {
	Feedback feedback.Feedback `json:"feedback"`
	Message  string            `json:"message"`
}

func (api *feedbackApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data feedback.NewFeedback
	if err = bindAndValidate(ctx, &data, "NewFeedback"); err != nil {
		return err
	}

	fb, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, FeedbackResponse{Feedback: fb, Message: feedback.ThankYou})
}

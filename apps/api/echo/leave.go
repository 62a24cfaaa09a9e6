package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/session"
	reportsvc "github.com/trezcool/schoolconnect/services/report"
)

// ReportMailer delivers generated reports by email.
type ReportMailer interface {
	MailLeaveReport(usr session.User, pdf []byte) error
}

type leaveApi struct {
	svc    *leave.Service
	mailer ReportMailer
}

func registerLeaveAPI(g *echo.Group, svc *leave.Service, mailer ReportMailer) {
	api := leaveApi{svc: svc, mailer: mailer}

	lg := g.Group("/leaves")
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.GET("/types", api.types)
	lg.GET("/report.pdf", api.report)
	lg.POST("/report/email", api.emailReport)
	lg.POST("/:id/review", api.review, staffMiddleware())
}

func (api *leaveApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	apps, err := api.svc.List(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying leave applications")
	}
	if apps == nil {
		apps = []leave.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *leaveApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data leave.NewApplication
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}

	app, err := api.svc.Submit(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *leaveApi) types(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, leave.Types)
}

func (api *leaveApi) renderReport(ctx echo.Context) (session.User, []byte, error) {
	usr, err := getContextUser(ctx)
	if err != nil {
		return usr, nil, errors.Wrap(err, "getting context user")
	}
	apps, err := api.svc.Mine(ctx.Request().Context(), usr)
	if err != nil {
		return usr, nil, errors.Wrap(err, "querying leave applications")
	}
	pdf, err := reportsvc.LeavesPDF(usr.Name, apps)
	return usr, pdf, errors.Wrap(err, "rendering leave report")
}

func (api *leaveApi) report(ctx echo.Context) error {
	_, pdf, err := api.renderReport(ctx)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="leaves.pdf"`)
	return ctx.Blob(http.StatusOK, "application/pdf", pdf)
}

func (api *leaveApi) emailReport(ctx echo.Context) error {
	usr, pdf, err := api.renderReport(ctx)
	if err != nil {
		return err
	}
	if err = api.mailer.MailLeaveReport(usr, pdf); err != nil {
		return errors.Wrap(err, "mailing leave report")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report has been sent to " + usr.Email + "."})
}

func (api *leaveApi) review(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data leave.Review
	if err = bindAndValidate(ctx, &data, "Review"); err != nil {
		return err
	}

	app, err := api.svc.Review(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
	"github.com/trezcool/schoolconnect/core/views"
	"github.com/trezcool/schoolconnect/storage/kv"
)

type accountApi struct {
	conf     *core.Config
	logger   core.Logger
	dir      session.Directory
	sessions kv.Backend
}

func registerAccountAPI(
	g *echo.Group,
	jwt, sess echo.MiddlewareFunc,
	limiter *ipRateLimiter,
	conf *core.Config,
	logger core.Logger,
	deps *ServerDeps,
) {
	api := accountApi{
		conf:     conf,
		logger:   logger,
		dir:      deps.Directory,
		sessions: deps.Sessions,
	}

	ag := g.Group("/auth")
	ag.POST("/signin", api.signIn, limiter.Middleware())
	ag.POST("/signout", api.signOut, jwt, sess)

	mg := g.Group("/me", jwt, sess)
	mg.GET("", api.me)
	mg.GET("/actions", api.actions)
}

func (api *accountApi) signIn(ctx echo.Context) error {
	var data SignInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignInRequest")
	}

	// every sign-in opens a new session, so signing out on one device keeps the others
	sessionID := uuid.NewString()
	store := session.NewStore(sessionStorage(api.sessions, sessionID), api.logger)
	usr, err := session.NewAuthenticator(api.dir, store).SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}

	token, err := GenerateToken(api.conf, newUserClaims(api.conf, usr, sessionID))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SignInResponse{Token: token, User: usr})
}

func (api *accountApi) signOut(ctx echo.Context) error {
	store, err := getContextStore(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if err = session.NewAuthenticator(api.dir, store).SignOut(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type ActionsResponse struct {
	QuickActions []views.QuickAction `json:"quickActions"`
	Composer     views.Composer      `json:"composer"`
}

func (api *accountApi) actions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, ActionsResponse{
		QuickActions: views.QuickActions(usr.Role),
		Composer:     views.NewMessageTarget(usr.Role),
	})
}

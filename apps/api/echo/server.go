package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/feedback"
	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/message"
	"github.com/trezcool/schoolconnect/core/school"
	"github.com/trezcool/schoolconnect/core/session"
	"github.com/trezcool/schoolconnect/storage/kv"
)

type (
	// ServerDeps are the services behind the API.
	// School and Subscriptions are optional: without them the school records routes answer 503.
	ServerDeps struct {
		Sessions      kv.Backend
		Directory     session.Directory
		Leaves        *leave.Service
		Reports       ReportMailer
		Broadcasts    *broadcast.Service
		Messages      *message.Service
		Feedback      *feedback.Service
		School        *school.Service
		Subscriptions school.Subscriptions
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		deps     *ServerDeps
		app      *echo.Echo
		metrics  *metrics
		limiter  *ipRateLimiter
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *ServerDeps) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
		limiter:  newIPRateLimiter(conf.Server.SignInRate, conf.Server.SignInBurst),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.Middleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.deps.Translator, s.SignalShutdown)
	s.app.Validator = structValidator{validate: s.deps.Validate}
	s.app.Debug = s.conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(s.conf))
	sess := sessionMiddleware(s.deps.Sessions, s.logger)

	registerAccountAPI(v1, jwt, sess, s.limiter, s.conf, s.logger, s.deps)

	ag := v1.Group("", jwt, sess)
	registerLeaveAPI(ag, s.deps.Leaves, s.deps.Reports)
	registerBroadcastAPI(ag, s.deps.Broadcasts)
	registerMessageAPI(ag, s.deps.Messages)
	registerFeedbackAPI(ag, s.deps.Feedback)
	registerSchoolAPI(ag, s.deps.School, s.deps.Subscriptions, s.logger)
}

// Start serves until Shutdown; any other failure is sent to Errors.
func (s *Server) Start() {
	s.limiter.StartCleanup(limiterCleanupInterval, limiterMaxIdle)
	if err := s.app.Start(s.conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.limiter.Stop()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}

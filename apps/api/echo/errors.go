package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/session"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errSessionExpired = echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errTooManyTries   = echo.NewHTTPError(http.StatusTooManyRequests, "too many sign-in attempts, try again later")
	errNotConfigured  = echo.NewHTTPError(http.StatusServiceUnavailable, "school records are not configured")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = echo.Map{"error": "validation failed", "fields": core.TranslateFieldErrors(origErr, translator)}
		case *core.ValidationError:
			code = http.StatusBadRequest
			if flds := origErr.FieldMap(); flds != nil {
				message = echo.Map{"error": origErr.Error(), "fields": flds}
			} else {
				message = origErr.Error()
			}
		default:
			switch {
			case core.IsNotFound(err):
				code = http.StatusNotFound
				message = cause.Error()
			case cause == core.ErrForbidden:
				code = http.StatusForbidden
				message = cause.Error()
			case cause == session.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = cause.Error()
			case cause == broadcast.ErrSendFailed:
				code = http.StatusBadGateway
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if usr, uErr := getContextUser(ctx); uErr == nil {
					logger.Error(msg, errors.Wrap(err, msg), usr)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

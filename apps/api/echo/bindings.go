package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core/session"
)

// structValidator plugs the shared validator into echo.Context.Validate.
type structValidator struct {
	validate *validator.Validate
}

func (v structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// bindAndValidate binds the request body into v, then runs its `validate` tags.
func bindAndValidate(ctx echo.Context, v interface{}, name string) error {
	if err := ctx.Bind(v); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return ctx.Validate(v)
}

type (
	SignInRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SignInResponse struct {
		Token string       `json:"token"`
		User  session.User `json:"user"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

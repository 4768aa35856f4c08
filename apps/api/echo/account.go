package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (req *LoginRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(req)
}

type accountApi struct {
	svc      *account.Service
	auth     *authenticator
	validate *validator.Validate
}

func registerAccountAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	auth *authenticator,
	svc *account.Service,
	validate *validator.Validate,
) {
	api := accountApi{
		svc:      svc,
		auth:     auth,
		validate: validate,
	}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)

	// authed endpoints
	ag.POST("/logout", api.logout, authed...)
	ag.GET("/me", api.me, authed...)
}

// Handlers

func (api *accountApi) register(ctx echo.Context) error {
	var data account.SignUp
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SignUp")
	}

	acc, err := api.svc.SignUp(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, ok, err := api.svc.Verify(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "verifying credentials")
	}
	if !ok {
		return errAuthenticationFailed
	}

	token, err := api.auth.login(acc)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	api.auth.sessions.Delete(sess.ID)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

func (api *accountApi) me(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	acc, err := api.svc.GetByUsername(ctx.Request().Context(), sess.Username)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return core.NewValidationError(errors.New("account no longer exists"))
		}
		return errors.Wrap(err, "getting account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

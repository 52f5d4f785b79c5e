package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
)

type SuccessResponse struct {
	Success string `json:"success"`
}

type authApi struct {
	svc      *user.Service
	validate *validator.Validate
	cookies  session.CookieOptions
	nowFunc  func() time.Time
}

func registerAuthAPI(g *echo.Group, proxy *proxyApi, svc *user.Service, validate *validator.Validate, cookies session.CookieOptions) {
	api := authApi{
		svc:      svc,
		validate: validate,
		cookies:  cookies,
		nowFunc:  time.Now,
	}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.POST("/register", api.register)

	g.GET("/user", func(ctx echo.Context) error {
		return proxy.relay(ctx, "/users/me", cookieAuth(ctx))
	})
	g.PUT("/user", api.updateMe)
}

func (api *authApi) setCookies(ctx echo.Context, cookies []*http.Cookie) {
	for _, c := range cookies {
		ctx.SetCookie(c)
	}
}

func (api *authApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	api.setCookies(ctx, api.cookies.NewCookies(sess.Token, sess.Role, api.nowFunc()))
	sess.Redirect = session.DashboardPath(sess.Role)
	return ctx.JSON(http.StatusOK, sess)
}

func (api *authApi) logout(ctx echo.Context) error {
	api.setCookies(ctx, api.cookies.ClearCookies())
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "sesión cerrada"})
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) updateMe(ctx echo.Context) error {
	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.UpdateMe(ctx.Request().Context(), cookieAuth(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

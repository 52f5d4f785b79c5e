package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parroquia/portal/core/session"
)

// accessMiddleware gates every request before routing.
// Without a session, pages go to /login and API calls get a 401;
// a session lacking the role of a guarded section goes back to /.
func accessMiddleware(rules *session.AccessRules) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			path := ctx.Request().URL.Path
			switch rules.Decide(path, sessionToken(ctx), contextRole(ctx)) {
			case session.Login:
				if isAPIPath(path) {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusFound, "/login")
			case session.Home:
				return ctx.Redirect(http.StatusFound, "/")
			}
			return next(ctx)
		}
	}
}

// requireRoles lets through sessions holding one of roles.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if sessionToken(ctx) == "" {
				return errUnauthorized
			}
			if session.HasAnyRole(contextRole(ctx), roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
)

const contextClaimsKey = "sessionClaims"

func cookieValue(ctx echo.Context, name string) string {
	if c, err := ctx.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

// sessionToken is the JWT kept in the tokenSession cookie.
func sessionToken(ctx echo.Context) string {
	return cookieValue(ctx, session.TokenCookie)
}

// jwtToken is the legacy jwt cookie, falling back to tokenSession.
func jwtToken(ctx echo.Context) string {
	if token := cookieValue(ctx, session.JWTCookie); token != "" {
		return token
	}
	return sessionToken(ctx)
}

func bearerAuth(ctx echo.Context) backend.Auth {
	return backend.BearerAuth(sessionToken(ctx))
}

func cookieAuth(ctx echo.Context) backend.Auth {
	return backend.CookieAuth(jwtToken(ctx))
}

func getContextClaims(ctx echo.Context) (session.Claims, bool) {
	if claims, ok := ctx.Get(contextClaimsKey).(session.Claims); ok {
		return claims, true
	}
	claims, err := session.ReadClaims(sessionToken(ctx))
	if err != nil {
		return session.Claims{}, false
	}
	ctx.Set(contextClaimsKey, claims)
	return claims, true
}

// contextRole prefers the role carried by the token over the role cookie.
func contextRole(ctx echo.Context) string {
	if claims, ok := getContextClaims(ctx); ok {
		if role := claims.UserRole(); session.IsRole(role) {
			return role
		}
	}
	return session.NormalizeRole(cookieValue(ctx, session.RoleCookie))
}

// contextUser is the little the gateway knows about the caller, for logs.
func contextUser(ctx echo.Context) user.User {
	var usr user.User
	if claims, ok := getContextClaims(ctx); ok {
		usr.ID = claims.ID
		usr.Email = claims.Email
	}
	usr.Role = contextRole(ctx)
	return usr
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

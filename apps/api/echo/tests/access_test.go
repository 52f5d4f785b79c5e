package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parroquia/portal/core/session"
)

func TestAccess(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		role         string
		wantCode     int
		wantLocation string
	}{
		{name: "public home", path: "/", wantCode: http.StatusOK},
		{name: "public login", path: "/login", wantCode: http.StatusOK},
		{name: "public payment response", path: "/payment/response?ref=INV-100", wantCode: http.StatusOK},
		{name: "anonymous dashboard", path: "/dashboard/secretaria", wantCode: http.StatusFound, wantLocation: "/login"},
		{name: "anonymous nested dashboard", path: "/dashboard/feligres/misas", wantCode: http.StatusFound, wantLocation: "/login"},
		{name: "anonymous api", path: "/api/echo", wantCode: http.StatusUnauthorized},
		{name: "wrong role", path: "/dashboard/parroco", role: session.RoleFeligres, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "secretary outside her section", path: "/dashboard/parroco/pagos", role: session.RoleSecretaria, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "own dashboard", path: "/dashboard/feligres", role: session.RoleFeligres, wantCode: http.StatusOK},
		{name: "higher role", path: "/dashboard/feligres", role: session.RoleParroco, wantCode: http.StatusOK},
		{name: "trailing slash", path: "/dashboard/secretaria/", role: session.RoleSecretaria, wantCode: http.StatusOK},
		{name: "unknown dashboard", path: "/dashboard/obispo", role: session.RoleParroco, wantCode: http.StatusNotFound},
		{name: "upper case role segment", path: "/dashboard/PARROCO", role: session.RoleFeligres, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "mixed case nested", path: "/dashboard/Parroco/pagos", role: session.RoleFeligres, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "accented role segment", path: "/dashboard/p%C3%A1rroco", role: session.RoleSecretaria, wantCode: http.StatusFound, wantLocation: "/"},
		{name: "non canonical own dashboard", path: "/dashboard/FELIGRES", role: session.RoleFeligres, wantCode: http.StatusNotFound},
		{name: "non canonical dashboard of the role", path: "/dashboard/Parroco", role: session.RoleParroco, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(t, http.MethodGet, tt.path, tt.role)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestAccess_apiUnauthorized(t *testing.T) {
	req, rec := newRequest(t, http.MethodGet, "/api/echo")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthenticated)}, rec)
}

func TestPages(t *testing.T) {
	t.Run("dashboard greets the user", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/dashboard/secretaria", session.RoleSecretaria)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Hola Ana Gómez")
		assert.Contains(t, body, `href="/dashboard/secretaria/reportes"`)
		assert.NotContains(t, body, "/dashboard/parroco/pagos")
	})

	t.Run("rejected session goes back to login", func(t *testing.T) {
		req, rec := newRequest(t, http.MethodGet, "/dashboard/feligres")
		req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: expiredToken})
		req.AddCookie(&http.Cookie{Name: session.RoleCookie, Value: session.RoleFeligres})
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		if c := findCookie(rec, session.TokenCookie); assert.NotNil(t, c) {
			assert.Empty(t, c.Value)
		}
	})

	t.Run("payment response polls the status", func(t *testing.T) {
		req, rec := newRequest(t, http.MethodGet, "/payment/response?ref_payco=ABC-9")
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<strong>ABC-9</strong>")
		assert.True(t, strings.Contains(body, "/api/payments/status/"))
	})
}

func TestPassThrough(t *testing.T) {
	t.Run("derives the bearer from the session", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/api/echo?page=2", session.RoleFeligres)
		token, _ := req.Cookie(session.TokenCookie)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "parroquia", rec.Header().Get("X-Backend"))
		got := unmarchall(t, rec.Body.Bytes())
		assert.Equal(t, "GET", got["method"])
		assert.Equal(t, "page=2", got["query"])
		assert.Equal(t, "Bearer "+token.Value, got["authorization"])
	})

	t.Run("keeps the caller's authorization", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodPost, "/api/echo", session.RoleFeligres, []byte(`{"a":1}`))
		req.Header.Set("Authorization", "Bearer mine")
		app.ServeHTTP(rec, req)

		got := unmarchall(t, rec.Body.Bytes())
		assert.Equal(t, "Bearer mine", got["authorization"])
		assert.Equal(t, `{"a":1}`, got["body"])
	})

	t.Run("relays API errors untouched", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/api/missing", session.RoleFeligres)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"message":"no existe"}`)}, rec)
	})

	t.Run("jwt cookie proxies", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/api/mass-requests", session.RoleFeligres)
		token, _ := req.Cookie(session.TokenCookie)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jwt="+token.Value, unmarchall(t, rec.Body.Bytes())["cookie"])
	})

	t.Run("legacy jwt cookie wins", func(t *testing.T) {
		req, rec := newAuthRequest(t, http.MethodGet, "/api/mass-requests", session.RoleFeligres)
		req.AddCookie(&http.Cookie{Name: session.JWTCookie, Value: "legacy"})
		app.ServeHTTP(rec, req)

		assert.Equal(t, "jwt=legacy", unmarchall(t, rec.Body.Bytes())["cookie"])
	})
}

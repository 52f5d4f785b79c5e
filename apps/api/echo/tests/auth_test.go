package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/parroquia/portal/apps/api/echo"
	"github.com/parroquia/portal/core/session"
)

func TestAuth_login(t *testing.T) {
	t.Run("sets the session cookies", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": " Ana@Parroquia.co ", "password": "secreto123"})
		req, rec := newRequest(t, http.MethodPost, "/api/auth/login", body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"role":     "secretaria",
				"user":     map[string]interface{}{"id": 7, "nombre": "Ana", "apellido": "Gómez", "email": "ana@parroquia.co"},
				"redirect": "/dashboard/secretaria",
			}),
		}, rec)

		token := findCookie(rec, session.TokenCookie)
		require.NotNil(t, token)
		assert.NotEmpty(t, token.Value)
		assert.True(t, token.HttpOnly)
		assert.Equal(t, "/", token.Path)
		role := findCookie(rec, session.RoleCookie)
		require.NotNil(t, role)
		assert.Equal(t, "secretaria", role.Value)
	})

	t.Run("relays the API's rejection", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "ana@parroquia.co", "password": "nope"})
		req, rec := newRequest(t, http.MethodPost, "/api/auth/login", body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"message":"credenciales inválidas"}`),
		}, rec)
		assert.Nil(t, findCookie(rec, session.TokenCookie))
	})

	t.Run("validates the form", func(t *testing.T) {
		req, rec := newRequest(t, http.MethodPost, "/api/auth/login", []byte(`{"email":"ana"}`))
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		fields := unmarchall(t, rec.Body.Bytes())
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})
}

func TestAuth_logout(t *testing.T) {
	req, rec := newAuthRequest(t, http.MethodPost, "/api/auth/logout", session.RoleFeligres)
	app.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, SuccessResponse{Success: "sesión cerrada"}),
	}, rec)
	for _, name := range []string{session.TokenCookie, session.RoleCookie, session.JWTCookie} {
		c := findCookie(rec, name)
		if assert.NotNil(t, c, name) {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestAuth_register(t *testing.T) {
	body := marchallObj(t, map[string]string{
		"nombre":          "Luis",
		"apellido":        "Pérez",
		"email":           "luis@parroquia.co",
		"tipoDocumento":   "CC",
		"documento":       "1234567",
		"password":        "secreto123",
		"confirmPassword": "otra-clave",
	})
	req, rec := newRequest(t, http.MethodPost, "/api/auth/register", body)
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, unmarchall(t, rec.Body.Bytes()), "confirmPassword")
}

func TestAuth_currentUser(t *testing.T) {
	tests := []httpTest{
		{
			name:     "anonymous",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errUnauthenticated),
		},
		{
			name:     "with session",
			role:     session.RoleSecretaria,
			wantCode: http.StatusOK,
			wantData: []byte(`{"id":7,"nombre":"Ana","apellido":"Gómez","rol":"secretaria"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(t, http.MethodGet, "/api/user", tt.role)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

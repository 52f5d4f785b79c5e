package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/session"
)

func newTestService(t *testing.T, h http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewService(backend.NewClient(srv.URL, time.Second))
}

func respond(status int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestService_Login(t *testing.T) {
	claimsToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, session.Claims{Rol: "Secretaría"}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantRole string
		wantErr  bool
		status   int
	}{
		{
			name:     "role in body",
			handler:  respond(http.StatusOK, map[string]interface{}{"token": "t", "role": "Párroco"}),
			wantRole: session.RoleParroco,
		},
		{
			name:     "role in user",
			handler:  respond(http.StatusOK, map[string]interface{}{"access_token": "t", "user": map[string]string{"rol": "feligres"}}),
			wantRole: session.RoleFeligres,
		},
		{
			name:     "role in claims",
			handler:  respond(http.StatusOK, map[string]interface{}{"jwt": claimsToken}),
			wantRole: session.RoleSecretaria,
		},
		{
			name:    "no token",
			handler: respond(http.StatusOK, map[string]interface{}{"role": "feligres"}),
			wantErr: true,
		},
		{
			name:    "unknown role",
			handler: respond(http.StatusOK, map[string]interface{}{"token": "t", "role": "obispo"}),
			wantErr: true,
		},
		{
			name:    "bad credentials",
			handler: respond(http.StatusUnauthorized, map[string]string{"message": "Credenciales inválidas"}),
			wantErr: true,
			status:  http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.handler)
			sess, err := svc.Login(context.Background(), Credentials{Email: "a@b.co", Password: "x"})
			if tt.wantErr {
				require.Error(t, err)
				if tt.status != 0 {
					var bErr *core.BackendError
					require.True(t, errors.As(err, &bErr))
					assert.Equal(t, tt.status, bErr.Status)
					assert.True(t, core.IsUnauthorized(err))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, sess.Role)
			assert.NotEmpty(t, sess.Token)
		})
	}
}

func TestService_Me(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "jwt=tok" || r.URL.Path != "/users/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		respond(http.StatusOK, User{Name: "Ana", LastName: "Gómez", Role: "feligres"})(w, r)
	})

	usr, err := svc.Me(context.Background(), backend.CookieAuth("tok"))
	require.NoError(t, err)
	assert.Equal(t, "Ana Gómez", usr.FullName())

	_, err = svc.Me(context.Background(), backend.CookieAuth("other"))
	assert.True(t, core.IsUnauthorized(err))
}

func TestNewUser_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	valid := NewUser{
		Name: " Ana ", LastName: "Gómez", Email: " ANA@Parroquia.co ", DocumentType: "cc",
		Document: "1020304050", Password: "secreta123", PasswordConfirm: "secreta123", Role: session.RoleParroco,
	}
	nu := valid
	require.NoError(t, nu.Validate(validate))
	assert.Equal(t, "Ana", nu.Name)
	assert.Equal(t, "ana@parroquia.co", nu.Email)
	assert.Equal(t, session.RoleFeligres, nu.Role, "self-registration cannot pick a role")

	mismatch := valid
	mismatch.PasswordConfirm = "otra"
	assert.Error(t, mismatch.Validate(validate))

	badDoc := valid
	badDoc.DocumentType = "XX"
	assert.Error(t, badDoc.Validate(validate))
}

func TestUpdateProfile_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	empty := UpdateProfile{Name: "  "}
	err := empty.Validate(validate)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))

	up := UpdateProfile{Phone: "+57 300 1234567"}
	assert.NoError(t, up.Validate(validate))
}

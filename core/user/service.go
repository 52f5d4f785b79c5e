package user

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/backend"
	"github.com/parroquia/portal/core/session"
)

var ErrNoToken = errors.New("login response carries no token")

// loginResponse accepts the token under the names the API has used.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	JWT         string `json:"jwt"`
	Role        string `json:"role"`
	Rol         string `json:"rol"`
	User        *User  `json:"user"`
	Usuario     *User  `json:"usuario"`
}

type Service struct {
	api *backend.Client
}

func NewService(api *backend.Client) *Service {
	return &Service{api: api}
}

// Login exchanges credentials for the API's JWT and resolves the user's role:
// from the response body, then the embedded user, then the token claims.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	var res loginResponse
	if err := svc.api.JSON(ctx, http.MethodPost, "/auth/login", backend.Auth{}, creds, &res); err != nil {
		return Session{}, errors.Wrap(err, "logging in")
	}

	sess := Session{Token: firstNonEmpty(res.Token, res.AccessToken, res.JWT), User: res.User}
	if sess.Token == "" {
		return Session{}, ErrNoToken
	}
	if sess.User == nil {
		sess.User = res.Usuario
	}

	role := firstNonEmpty(res.Role, res.Rol)
	if role == "" && sess.User != nil {
		role = sess.User.Role
	}
	if role == "" {
		if claims, err := session.ReadClaims(sess.Token); err == nil {
			role = claims.UserRole()
		}
	}
	if !session.IsRole(role) {
		return Session{}, core.NewValidationError(errors.Errorf("rol desconocido %q", role))
	}
	sess.Role = session.NormalizeRole(role)
	return sess, nil
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	var usr User
	err := svc.api.JSON(ctx, http.MethodPost, "/auth/register", backend.Auth{}, nu, &usr)
	return usr, errors.Wrap(err, "registering user")
}

func (svc *Service) Me(ctx context.Context, auth backend.Auth) (User, error) {
	var usr User
	err := svc.api.JSON(ctx, http.MethodGet, "/users/me", auth, nil, &usr)
	return usr, errors.Wrap(err, "fetching current user")
}

func (svc *Service) UpdateMe(ctx context.Context, auth backend.Auth, up UpdateProfile) (User, error) {
	var usr User
	err := svc.api.JSON(ctx, http.MethodPut, "/users/me", auth, up, &usr)
	return usr, errors.Wrap(err, "updating current user")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

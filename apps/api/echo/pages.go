package echoapi

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/session"
	"github.com/parroquia/portal/core/user"
)

//go:embed templates
var templatesFS embed.FS

type (
	section struct {
		Title string
		Path  string
	}

	pageData struct {
		Title    string
		Role     string
		User     *user.User
		Sections []section
		Checkout *payment.CheckoutForm
		Ref      string
	}

	renderer struct {
		pages map[string]*template.Template
	}
)

// dashboard sections reachable by each role
var roleSections = map[string][]section{
	session.RoleParroco: {
		{"Sacramentos", "/dashboard/parroco/sacramentos"},
		{"Horarios de misa", "/dashboard/parroco/misas"},
		{"Solicitudes de partida", "/dashboard/parroco/partidas"},
		{"Pagos", "/dashboard/parroco/pagos"},
		{"Reportes contables", "/dashboard/parroco/reportes"},
	},
	session.RoleSecretaria: {
		{"Sacramentos", "/dashboard/secretaria/sacramentos"},
		{"Horarios de misa", "/dashboard/secretaria/misas"},
		{"Solicitudes de partida", "/dashboard/secretaria/partidas"},
		{"Reportes contables", "/dashboard/secretaria/reportes"},
	},
	session.RoleFeligres: {
		{"Solicitar misa", "/dashboard/feligres/misas"},
		{"Solicitar partida", "/dashboard/feligres/partidas"},
		{"Mis pagos", "/dashboard/feligres/pagos"},
		{"Mi perfil", "/dashboard/feligres/perfil"},
	},
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template)}
	entries, err := fs.ReadDir(templatesFS, "templates/pages")
	if err != nil {
		return nil, errors.Wrap(err, "reading page templates")
	}
	for _, e := range entries {
		tmpl, err := template.ParseFS(templatesFS, "templates/layout.gohtml", path.Join("templates/pages", e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing page %s", e.Name())
		}
		r.pages[e.Name()] = tmpl
	}
	return r, nil
}

func mustRenderer() *renderer {
	r, err := newRenderer()
	if err != nil {
		panic(err) // embedded templates
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

type pagesApi struct {
	usrSvc  *user.Service
	cookies session.CookieOptions
	logger  core.Logger
}

func registerPages(app *echo.Echo, usrSvc *user.Service, cookies session.CookieOptions, logger core.Logger) {
	api := pagesApi{usrSvc: usrSvc, cookies: cookies, logger: logger}

	app.GET("/", api.home)
	app.GET("/login", api.login)
	app.GET("/dashboard/:role", api.dashboard)
	app.GET("/dashboard/:role/*", api.dashboard)
}

func (api *pagesApi) home(ctx echo.Context) error {
	data := pageData{Title: "Inicio"}
	if sessionToken(ctx) != "" {
		data.Role = contextRole(ctx)
	}
	return ctx.Render(http.StatusOK, "home.gohtml", data)
}

func (api *pagesApi) login(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "login.gohtml", pageData{Title: "Iniciar sesión"})
}

func (api *pagesApi) dashboard(ctx echo.Context) error {
	// only the canonical /dashboard/<role> pages exist
	role := ctx.Param("role")
	sections, ok := roleSections[role]
	if !ok || role != session.NormalizeRole(role) {
		return errHttpNotFound
	}

	data := pageData{Title: "Panel", Role: role, Sections: sections}
	usr, err := api.usrSvc.Me(ctx.Request().Context(), bearerAuth(ctx))
	switch {
	case err == nil:
		data.User = &usr
	case core.IsUnauthorized(err):
		// the API no longer accepts the session
		for _, c := range api.cookies.ClearCookies() {
			ctx.SetCookie(c)
		}
		return ctx.Redirect(http.StatusFound, "/login")
	default:
		api.logger.Warn("loading dashboard user", err, contextUser(ctx))
	}
	return ctx.Render(http.StatusOK, "dashboard.gohtml", data)
}

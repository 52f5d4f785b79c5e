package echoapi

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/sacrament"
	"github.com/parroquia/portal/core/session"
)

type sacramentApi struct {
	svc *sacrament.Service
}

// registerSacramentAPI validates writes to /api/{baptisms,confirmations,marriages,deaths};
// reads go through the pass-through proxy.
func registerSacramentAPI(g *echo.Group, proxy *proxyApi, svc *sacrament.Service) {
	api := sacramentApi{svc: svc}
	staff := requireRoles(session.StaffRoles...)

	for _, kind := range sacrament.Kinds {
		kind := kind
		sg := g.Group("/" + string(kind))
		sg.POST("", func(ctx echo.Context) error { return api.create(ctx, kind) }, staff)
		sg.PUT("/:id", func(ctx echo.Context) error { return api.update(ctx, kind) }, staff)
		sg.DELETE("/:id", proxy.passThrough, staff)
	}
}

func readBody(ctx echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, 1<<20))
	return body, errors.Wrap(err, "reading request body")
}

// bindJSON decodes the JSON body only; echo's binder would also try to bind
// path params into the `id` fields of the API documents.
func bindJSON(ctx echo.Context, v interface{}) error {
	body, err := readBody(ctx)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, v); err != nil {
		return core.NewValidationError(errors.New("formulario inválido"))
	}
	return nil
}

func (api *sacramentApi) create(ctx echo.Context, kind sacrament.Kind) error {
	body, err := readBody(ctx)
	if err != nil {
		return err
	}
	doc, err := api.svc.Create(ctx.Request().Context(), bearerAuth(ctx), kind, body)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

func (api *sacramentApi) update(ctx echo.Context, kind sacrament.Kind) error {
	body, err := readBody(ctx)
	if err != nil {
		return err
	}
	doc, err := api.svc.Update(ctx.Request().Context(), bearerAuth(ctx), kind, ctx.Param("id"), body)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

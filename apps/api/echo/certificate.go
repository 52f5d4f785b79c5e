package echoapi

import (
	"net/mail"

	"github.com/labstack/echo/v4"

	"github.com/parroquia/portal/core/certificate"
)

type certificateApi struct {
	svc *certificate.Service
}

func registerCertificateAPI(g *echo.Group, proxy *proxyApi, svc *certificate.Service) {
	api := certificateApi{svc: svc}

	// departure requests are authenticated with the jwt cookie
	dg := g.Group("/departure-requests")
	dg.GET("", proxy.withCookie)
	dg.POST("", api.create)
	dg.GET("/:id", proxy.withCookie)
	dg.PUT("/:id", api.update)
	dg.DELETE("/:id", proxy.withCookie)
}

func (api *certificateApi) create(ctx echo.Context) error {
	var data certificate.DepartureRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	var requester mail.Address
	if claims, ok := getContextClaims(ctx); ok {
		requester.Address = claims.Email
	}

	doc, err := api.svc.Create(ctx.Request().Context(), cookieAuth(ctx), data, requester)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

func (api *certificateApi) update(ctx echo.Context) error {
	var data certificate.DepartureRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	doc, err := api.svc.Update(ctx.Request().Context(), cookieAuth(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

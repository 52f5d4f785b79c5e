package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/mass"
	"github.com/parroquia/portal/core/session"
)

type massApi struct {
	svc   *mass.Service
	avail *mass.AvailabilityService
}

type monthAvailability struct {
	Month string                 `json:"mes"`
	Days  []mass.DayAvailability `json:"dias"`
}

func registerMassAPI(g *echo.Group, proxy *proxyApi, svc *mass.Service, avail *mass.AvailabilityService) {
	api := massApi{svc: svc, avail: avail}

	g.GET("/mass/availability", api.availability)
	g.POST("/mass/schedules", api.createSchedule, requireRoles(session.StaffRoles...))

	// mass requests are authenticated with the jwt cookie
	rg := g.Group("/mass-requests")
	rg.GET("", proxy.withCookie)
	rg.POST("", api.createRequest)
	rg.GET("/:id", proxy.withCookie)
	rg.PUT("/:id", api.updateRequest)
	rg.DELETE("/:id", proxy.withCookie)
}

func (api *massApi) availability(ctx echo.Context) error {
	month := ctx.QueryParam("month")
	year, m, err := mass.ParseMonth(month)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "debe tener el formato AAAA-MM"})
	}

	days, err := api.avail.Month(ctx.Request().Context(), bearerAuth(ctx), year, m, time.Now())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, monthAvailability{
		Month: time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		Days:  days,
	})
}

func (api *massApi) createSchedule(ctx echo.Context) error {
	var data mass.MassSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MassSchedule")
	}
	doc, err := api.svc.CreateSchedule(ctx.Request().Context(), bearerAuth(ctx), data)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

func (api *massApi) createRequest(ctx echo.Context) error {
	var data mass.MassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MassRequest")
	}
	doc, err := api.svc.CreateRequest(ctx.Request().Context(), cookieAuth(ctx), data)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

func (api *massApi) updateRequest(ctx echo.Context) error {
	var data mass.MassRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	doc, err := api.svc.UpdateRequest(ctx.Request().Context(), cookieAuth(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return relayDocument(ctx, doc)
}

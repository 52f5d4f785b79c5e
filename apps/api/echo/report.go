package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/session"
)

func registerReportAPI(g *echo.Group, svc *report.Service) {
	g.GET("/reports/accounting", func(ctx echo.Context) error {
		r, err := svc.Accounting(ctx.Request().Context(), bearerAuth(ctx), ctx.QueryParam("from"), ctx.QueryParam("to"))
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, r)
	}, requireRoles(session.StaffRoles...))
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
	"github.com/parroquia/portal/core/payment"
	"github.com/parroquia/portal/core/report"
	"github.com/parroquia/portal/core/session"
)

type paymentApi struct {
	svc *payment.Service
}

func registerPaymentAPI(app *echo.Echo, g *echo.Group, svc *payment.Service) {
	api := paymentApi{svc: svc}

	// browser hand-off pages
	app.POST("/payment/checkout", api.checkout)
	app.GET("/payment/response", api.response)

	g.GET("/payments/status/:ref", api.status)
	g.GET("/payments/ledger", api.ledger, requireRoles(session.StaffRoles...))
}

// checkout opens the invoice and renders the form that auto-submits to ePayco.
func (api *paymentApi) checkout(ctx echo.Context) error {
	req := payment.IntentRequest{Concept: ctx.FormValue("concept")}
	if ref := ctx.FormValue("referenceId"); ref != "" {
		req.ReferenceID = ref
	}

	form, err := api.svc.Checkout(ctx.Request().Context(), bearerAuth(ctx), req)
	if errors.Is(err, payment.ErrNotConfigured) {
		return errPaymentsOff
	}
	if err != nil {
		return err
	}
	return ctx.Render(http.StatusOK, "checkout.gohtml", pageData{Title: "Redirigiendo al pago", Checkout: form})
}

// response is where ePayco sends the browser back; the page polls the status endpoint.
func (api *paymentApi) response(ctx echo.Context) error {
	ref := core.CleanString(ctx.QueryParam("ref"))
	if ref == "" {
		// ePayco's own reference as a last resort
		ref = core.CleanString(ctx.QueryParam("ref_payco"))
	}
	return ctx.Render(http.StatusOK, "payment_response.gohtml", pageData{Title: "Estado del pago", Ref: ref})
}

func (api *paymentApi) status(ctx echo.Context) error {
	res, err := api.svc.Status(ctx.Request().Context(), bearerAuth(ctx), ctx.Param("ref"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// ledger lists the payments this gateway has tracked.
func (api *paymentApi) ledger(ctx echo.Context) error {
	var filter payment.Filter
	if from, to := ctx.QueryParam("from"), ctx.QueryParam("to"); from != "" || to != "" {
		f, t, err := report.ParseRange(from, to)
		if err != nil {
			return err
		}
		filter.From, filter.To = f, t.AddDate(0, 0, 1)
	}
	if q := ctx.QueryParam("status"); q != "" {
		status, ok := payment.ParseStatus(q)
		if !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "estado de pago desconocido"})
		}
		filter.Status = status
	}

	entries, err := api.svc.Ledger().List(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

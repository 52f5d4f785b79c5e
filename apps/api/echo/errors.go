package echoapi

import (
	"encoding/json"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "no autenticado")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permiso denegado")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "no encontrado")
	errPaymentsOff   = echo.NewHTTPError(http.StatusServiceUnavailable, "los pagos en línea no están disponibles")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}
		var raw []byte

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.BackendError:
			// the parish API already phrased it for the user
			code = origErr.Status
			message = origErr.Message
			if json.Valid(origErr.Body) {
				raw = origErr.Body
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = core.ErrInternal

			logger.Error(http.StatusText(code), errors.Wrap(err, ctx.Request().URL.Path), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && raw == nil {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			switch {
			case ctx.Request().Method == http.MethodHead: // Issue #608
				err = ctx.NoContent(code)
			case raw != nil:
				err = ctx.Blob(code, echo.MIMEApplicationJSONCharsetUTF8, raw)
			default:
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

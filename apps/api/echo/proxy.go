package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/parroquia/portal/core/backend"
)

// forwarded request headers
var forwardHeaders = []string{echo.HeaderContentType, echo.HeaderAccept, "Accept-Language"}

type proxyApi struct {
	api *backend.Client
}

// passThrough relays /api/<path>?<query> to the parish API's /<path>?<query>,
// with the caller's Authorization or one derived from the session cookie.
func (p *proxyApi) passThrough(ctx echo.Context) error {
	auth := bearerAuth(ctx)
	if ctx.Request().Header.Get(echo.HeaderAuthorization) != "" {
		auth = backend.Auth{} // keep the caller's own header
	}
	return p.relay(ctx, apiPath(ctx), auth, echo.HeaderAuthorization)
}

// withCookie relays the request presenting the session as a `jwt` cookie.
func (p *proxyApi) withCookie(ctx echo.Context) error {
	return p.relay(ctx, apiPath(ctx), cookieAuth(ctx))
}

func (p *proxyApi) relay(ctx echo.Context, path string, auth backend.Auth, extraHeaders ...string) error {
	req := ctx.Request()
	header := make(http.Header)
	for _, h := range append(forwardHeaders, extraHeaders...) {
		if v := req.Header.Get(h); v != "" {
			header.Set(h, v)
		}
	}

	res, err := p.api.Do(req.Context(), backend.Request{
		Method:   req.Method,
		Path:     path,
		RawQuery: req.URL.RawQuery,
		Header:   header,
		Body:     req.Body,
		Auth:     auth,
	})
	if err != nil {
		return errors.Wrapf(err, "proxying %s %s", req.Method, path)
	}

	res.RelayHeader(ctx.Response().Header())
	if len(res.Body) == 0 {
		return ctx.NoContent(res.Status)
	}
	return ctx.Blob(res.Status, res.ContentType(), res.Body)
}

// apiPath strips the /api prefix of the request path.
func apiPath(ctx echo.Context) string {
	path := strings.TrimPrefix(ctx.Request().URL.Path, "/api")
	if path == "" {
		return "/"
	}
	return path
}

// relayDocument answers with the API's own status and document.
func relayDocument(ctx echo.Context, doc backend.Document) error {
	if len(doc.Body) == 0 {
		return ctx.NoContent(doc.Status)
	}
	return ctx.JSONBlob(doc.Status, doc.Body)
}

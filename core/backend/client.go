// Package backend talks to the parish REST API that owns every record.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/parroquia/portal/core"
)

// maxBodySize caps relayed response bodies.
const maxBodySize = 10 << 20

const msgBodyTooLarge = "la respuesta del servidor es demasiado grande"

// hop-by-hop and gateway-owned headers that are never relayed
var skipResponseHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Content-Length":    true,
	"Set-Cookie":        true,
}

// Auth selects how the session token is presented to the API.
type Auth struct {
	Bearer    string // Authorization: Bearer <token>
	CookieJWT string // Cookie: jwt=<token>
}

func BearerAuth(token string) Auth { return Auth{Bearer: token} }
func CookieAuth(token string) Auth { return Auth{CookieJWT: token} }

func (a Auth) IsZero() bool { return a.Bearer == "" && a.CookieJWT == "" }

func (a Auth) apply(h http.Header) {
	if a.Bearer != "" {
		h.Set("Authorization", "Bearer "+a.Bearer)
	}
	if a.CookieJWT != "" {
		h.Set("Cookie", "jwt="+a.CookieJWT)
	}
}

type (
	Request struct {
		Method   string
		Path     string // relative to the API base URL
		RawQuery string
		Header   http.Header
		Body     io.Reader
		Auth     Auth
	}

	Response struct {
		Status int
		Header http.Header
		Body   []byte
	}
)

// ContentType returns the response content type, defaulting to JSON.
func (r *Response) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// RelayHeader copies the relayable response headers into dst.
func (r *Response) RelayHeader(dst http.Header) {
	for k, vs := range r.Header {
		if skipResponseHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	maxBody int64
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    hc,
		maxBody: maxBodySize,
	}
}

// URL joins path (and query) to the API base URL.
func (c *Client) URL(path, rawQuery string) string {
	u := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// Do sends req and returns the API answer whatever its status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path, req.RawQuery), req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "building backend request")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	req.Auth.apply(hreq.Header)

	res, err := c.http.Do(hreq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.Path)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading backend response")
	}
	if int64(len(body)) > c.maxBody {
		// never relay a truncated answer
		return nil, &core.BackendError{Status: http.StatusBadGateway, Message: msgBodyTooLarge}
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: body}, nil
}

// JSON sends `in` (if any) as a JSON body and decodes a successful answer into `out` (if any).
// Non-2xx answers are returned as *core.BackendError.
func (c *Client) JSON(ctx context.Context, method, path string, auth Auth, in, out interface{}) error {
	res, err := c.send(ctx, method, path, auth, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(res.Body)) == 0 {
		return nil
	}
	if err = json.Unmarshal(res.Body, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

// Document is a successful API answer kept as-is, with the status the API gave it.
type Document struct {
	Status int
	Body   json.RawMessage
}

// Document sends `in` (if any) as a JSON body and returns the successful answer untouched.
// Non-2xx answers are returned as *core.BackendError.
func (c *Client) Document(ctx context.Context, method, path string, auth Auth, in interface{}) (Document, error) {
	res, err := c.send(ctx, method, path, auth, in)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Status: res.Status}
	if len(bytes.TrimSpace(res.Body)) > 0 {
		doc.Body = res.Body
	}
	return doc, nil
}

func (c *Client) send(ctx context.Context, method, path string, auth Auth, in interface{}) (*Response, error) {
	req := Request{Method: method, Auth: auth, Header: make(http.Header)}
	req.Path, req.RawQuery = splitQuery(path)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "encoding backend request")
		}
		req.Body = bytes.NewReader(data)
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return nil, ErrorFromResponse(res)
	}
	return res, nil
}

func splitQuery(path string) (string, string) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

// Query is a small helper to build "path?query" strings for JSON.
func Query(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

// ErrorFromResponse turns a failed answer into a *core.BackendError carrying the API's message.
func ErrorFromResponse(res *Response) error {
	return &core.BackendError{
		Status:  res.Status,
		Message: ErrorMessage(res.Body),
		Body:    res.Body,
	}
}

// ErrorMessage extracts the human message of an API error body:
// `message` (string or list), `error`, `detail` or `msg`; a generic message otherwise.
func ErrorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return core.ErrInternal
	}
	for _, key := range []string{"message", "error", "detail", "msg"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			msgs := make([]string, 0, len(v))
			for _, m := range v {
				if s, ok := m.(string); ok && s != "" {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, ", ")
			}
		}
	}
	return core.ErrInternal
}

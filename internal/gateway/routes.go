package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Reflection describes the request the gateway received.
type Reflection struct {
	Method string              `json:"method"`
	Path   string              `json:"path"`
	Query  map[string][]string `json:"query,omitempty"`
	Body   json.RawMessage     `json:"body,omitempty"`
	Text   string              `json:"text,omitempty"`
}

// Reflect answers with a Reflection of the verified request. JSON bodies are
// echoed verbatim, anything else as text.
func Reflect(c echo.Context, body []byte) (any, error) {
	req := c.Request()
	out := Reflection{
		Method: req.Method,
		Path:   req.URL.Path,
	}
	if q := req.URL.Query(); len(q) > 0 {
		out.Query = q
	}
	switch {
	case len(body) == 0:
	case json.Valid(body):
		out.Body = body
	default:
		out.Text = string(body)
	}
	return out, nil
}

// Ping answers every call with data null, which clients must treat as an
// unexpected response.
func Ping(echo.Context, []byte) (any, error) {
	return nil, nil
}

// RegisterDefaults installs the routes the CLI's mock gateway serves.
func (g *Gateway) RegisterDefaults() {
	g.Handle(http.MethodGet, "/v1/ping", Ping)
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		g.Handle(method, "/v1/echo", Reflect)
	}
}

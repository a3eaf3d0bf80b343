package gateway

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-openapi/signature"
	"github.com/gaborage/go-openapi/timestamp"
	"github.com/gaborage/go-openapi/trace"
)

const (
	headerAPIKey        = signature.HeaderAPIKey
	headerAuthorization = signature.HeaderAuthorization
	headerTimestamp     = signature.HeaderTimestamp
	headerTraceID       = trace.HeaderTraceID

	bodyKey = "gateway.body"
)

func requestBody(c echo.Context) []byte {
	body, _ := c.Get(bodyKey).([]byte)
	return body
}

// traceID stamps every response, envelope or not, with the server span's
// trace id, or a random id when tracing is off.
func (g *Gateway) traceID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := trace.NewRequestID()
		if sc := oteltrace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
			id = sc.TraceID().String()
		}
		c.Response().Header().Set(headerTraceID, id)
		return next(c)
	}
}

// authenticate rejects requests whose credentials, timestamp or signature do
// not check out. The body is buffered so the signature covers the exact bytes.
func (g *Gateway) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		var body []byte
		if req.Body != nil {
			var err error
			body, err = io.ReadAll(req.Body)
			if err != nil {
				return NewError(http.StatusBadRequest, CodeBadRequest, "unreadable request body")
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		c.Set(bodyKey, body)

		app, ok := g.cfg.Apps[req.Header.Get(headerAPIKey)]
		if !ok {
			return NewError(http.StatusUnauthorized, CodeInvalidAppKey, "invalid app key")
		}
		if req.Header.Get(headerAuthorization) != app.AccessToken {
			return NewError(http.StatusUnauthorized, CodeInvalidToken, "invalid access token")
		}

		ts, err := timestamp.Parse(req.Header.Get(headerTimestamp))
		if err != nil {
			return NewError(http.StatusUnauthorized, CodeTimestampExpired, "invalid timestamp")
		}
		if skew := g.cfg.Now().Sub(ts.Time()).Abs(); skew > g.cfg.MaxSkew {
			return NewError(http.StatusUnauthorized, CodeTimestampExpired, "timestamp expired")
		}

		if err := signature.Verify(req, body, app.Secret); err != nil {
			g.logger.Debug().
				Err(err).
				Str("path", req.URL.Path).
				Msg("signature rejected")
			return NewError(http.StatusUnauthorized, CodeSignatureInvalid, "signature invalid")
		}

		return next(c)
	}
}

func (g *Gateway) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = NewError(http.StatusInternalServerError, CodeInternal, "internal error")
		var he *echo.HTTPError
		if errors.As(err, &he) {
			apiErr = NewError(he.Code, statusToCode(he.Code), http.StatusText(he.Code))
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		g.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("gateway handler failed")
	}

	_ = c.JSON(apiErr.Status, envelope{Code: apiErr.Code, Message: apiErr.Message})
}

package httpclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gaborage/go-openapi/trace"
)

// logRequest logs the outgoing request
func (c *Client) logRequest(req *http.Request, body []byte) {
	logEvent := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", req.Header.Get(trace.HeaderRequestID))

	if len(req.Header) > 0 {
		logEvent = logEvent.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}

	logEvent.Msg("openapi request")

	if !c.config.LogPayloads {
		return
	}

	// http.Header is a named type; the masking filter matches the plain map
	debugEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", req.Header.Get(trace.HeaderRequestID)).
		Interface("headers", map[string][]string(req.Header.Clone()))

	if len(body) > 0 {
		preview, truncated := c.preview(body)
		debugEvent = debugEvent.
			Int("body_size", len(body)).
			Str("body_truncated", strconv.FormatBool(truncated)).
			Bytes("body_preview", preview)
	}

	debugEvent.Msg("openapi request")
}

// logResponse logs the incoming response
func (c *Client) logResponse(status int, elapsed time.Duration, traceID string, attempt int, body []byte) {
	logEvent := c.logger.Info().
		Str("direction", "inbound").
		Int("status", status).
		Dur("elapsed", elapsed).
		Str("trace_id", traceID).
		Int("attempt", attempt)

	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}

	logEvent.Msg("openapi response")

	if !c.config.LogPayloads || len(body) == 0 {
		return
	}

	preview, truncated := c.preview(body)
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", status).
		Str("trace_id", traceID).
		Int("body_size", len(body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg("openapi response")
}

// preview caps body at MaxPayloadLogBytes, falling back to the default cap
func (c *Client) preview(body []byte) ([]byte, bool) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) <= limit {
		return body, false
	}
	return body[:limit], true
}

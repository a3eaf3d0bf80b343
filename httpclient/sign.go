package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"golang.org/x/net/http/httpguts"

	"github.com/gaborage/go-openapi/signature"
	"github.com/gaborage/go-openapi/timestamp"
	"github.com/gaborage/go-openapi/trace"
)

const (
	userAgent   = "openapi-sdk"
	contentType = "application/json; charset=utf-8"

	headerUserAgent   = "User-Agent"
	headerContentType = "Content-Type"
)

// call holds what a Request captured; each attempt rebuilds from it.
type call struct {
	method      string
	path        string
	header      http.Header
	encodeBody  func() ([]byte, error)
	encodeQuery func() (string, error)
}

// requestTimestamp prefers a parseable X-Timestamp set by the caller.
func (c *Client) requestTimestamp(header http.Header) timestamp.Timestamp {
	if raw := header.Get(signature.HeaderTimestamp); raw != "" {
		if ts, err := timestamp.Parse(raw); err == nil {
			return ts
		}
	}
	return c.clock.Now()
}

// applyHeaders layers request id, client defaults, caller headers and the
// protocol headers, later layers winning.
func (c *Client) applyHeaders(ctx context.Context, dst, callerHeaders http.Header, ts timestamp.Timestamp) {
	dst.Set(trace.HeaderRequestID, trace.EnsureRequestID(ctx))

	for key, value := range c.config.DefaultHeaders {
		dst.Set(key, value)
	}

	for key, values := range callerHeaders {
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	dst.Set(headerUserAgent, userAgent)
	dst.Set(signature.HeaderAPIKey, c.config.AppKey)
	dst.Set(signature.HeaderAuthorization, c.config.AccessToken)
	dst.Set(signature.HeaderTimestamp, ts.String())
	dst.Set(headerContentType, contentType)
}

// buildRequest produces one signed attempt. Encoding failures return before
// the endpoint is resolved, so nothing touches the network.
func (c *Client) buildRequest(ctx context.Context, cl *call) (*http.Request, []byte, error) {
	ts := c.requestTimestamp(cl.header)

	if !httpguts.ValidHeaderFieldValue(c.config.AppKey) {
		return nil, nil, NewInvalidAPIKeyError()
	}
	if !httpguts.ValidHeaderFieldValue(c.config.AccessToken) {
		return nil, nil, NewInvalidAccessTokenError()
	}

	var body []byte
	if cl.encodeBody != nil {
		encoded, err := cl.encodeBody()
		if err != nil {
			return nil, nil, NewSerializeError("serialize request body", err)
		}
		body = encoded
	}

	var rawQuery *string
	if cl.encodeQuery != nil {
		encoded, err := cl.encodeQuery()
		if err != nil {
			return nil, nil, NewSerializeError("serialize query string", err)
		}
		rawQuery = &encoded
	}

	u, err := endpoint(c.baseURL(ctx), cl.path, rawQuery)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), reader)
	if err != nil {
		return nil, nil, NewValidationError("failed to create HTTP request: "+err.Error(), "method")
	}
	req.URL = u

	c.applyHeaders(ctx, req.Header, cl.header, ts)

	req.Header.Set(signature.HeaderSignature, c.signer.Sign(signature.Params{
		Method:      req.Method,
		URL:         req.URL,
		Body:        body,
		AppKey:      c.config.AppKey,
		AccessToken: c.config.AccessToken,
		AppSecret:   c.config.AppSecret,
		Timestamp:   ts,
	}))
	return req, body, nil
}

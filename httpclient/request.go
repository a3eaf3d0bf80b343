package httpclient

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"golang.org/x/net/http/httpguts"

	"github.com/gaborage/go-openapi/payload"
)

// Request is a pending call. T is the body codec, Q the query parameters and R
// the decoded type of the envelope's data.
//
// Every transformation returns a new value; earlier values are never
// mutated. All values derived from one Client.Request call share a single
// send, so a second Send on any of them fails with a validation error.
type Request[T payload.Encoder, Q any, R any] struct {
	client *Client
	method string
	path   string
	header http.Header
	body   *T
	query  *Q
	decode func(data []byte) (R, error)
	sent   *atomic.Bool
}

// Request starts a call with no body, no query and an empty response.
func (c *Client) Request(method, path string) Request[payload.Empty, payload.Empty, payload.Empty] {
	return Request[payload.Empty, payload.Empty, payload.Empty]{
		client: c,
		method: strings.ToUpper(method),
		path:   path,
		header: make(http.Header),
		decode: payload.Decode[payload.Empty, *payload.Empty],
		sent:   new(atomic.Bool),
	}
}

// WithBody replaces the request body.
func WithBody[T2 payload.Encoder, T payload.Encoder, Q, R any](b Request[T, Q, R], body T2) Request[T2, Q, R] {
	return Request[T2, Q, R]{
		client: b.client,
		method: b.method,
		path:   b.path,
		header: b.header,
		body:   &body,
		query:  b.query,
		decode: b.decode,
		sent:   b.sent,
	}
}

// WithQuery replaces the query parameters. params may be a url.Values, a
// QueryEncoder or a struct with `url` tags.
func WithQuery[Q2 any, T payload.Encoder, Q, R any](b Request[T, Q, R], params Q2) Request[T, Q2, R] {
	return Request[T, Q2, R]{
		client: b.client,
		method: b.method,
		path:   b.path,
		header: b.header,
		body:   b.body,
		query:  &params,
		decode: b.decode,
		sent:   b.sent,
	}
}

// WithResponse selects the type the envelope's data decodes into.
func WithResponse[R2 any, P payload.DecoderPtr[R2], T payload.Encoder, Q, R any](b Request[T, Q, R]) Request[T, Q, R2] {
	return Request[T, Q, R2]{
		client: b.client,
		method: b.method,
		path:   b.path,
		header: b.header,
		body:   b.body,
		query:  b.query,
		decode: payload.Decode[R2, P],
		sent:   b.sent,
	}
}

// Header sets a request header, replacing earlier values of the same name.
// An invalid name or value leaves the request unchanged.
func (b Request[T, Q, R]) Header(name, value string) Request[T, Q, R] {
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return b
	}
	header := b.header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(name, value)
	b.header = header
	return b
}

// Send executes the request, retrying on rate limiting, and decodes the
// envelope's data into R.
func (b Request[T, Q, R]) Send(ctx context.Context) (R, error) {
	var zero R
	if b.client == nil || b.sent == nil || b.decode == nil {
		return zero, NewValidationError("request was not created by a client", "request")
	}
	if !b.sent.CompareAndSwap(false, true) {
		return zero, NewValidationError("request already sent", "request")
	}
	return send(ctx, b.client, b.call(), b.decode)
}

func (b Request[T, Q, R]) call() *call {
	cl := &call{
		method: b.method,
		path:   b.path,
		header: b.header,
	}
	if b.body != nil {
		body := *b.body
		cl.encodeBody = body.EncodePayload
	}
	if b.query != nil {
		params := *b.query
		cl.encodeQuery = func() (string, error) { return encodeQuery(params) }
	}
	return cl
}

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientErrorTypes(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      ClientError
		wantType ErrorType
		wantMsg  string
		unwraps  bool
	}{
		{name: "invalid api key", err: NewInvalidAPIKeyError(), wantType: InvalidAPIKeyError, wantMsg: "invalid api key"},
		{name: "invalid access token", err: NewInvalidAccessTokenError(), wantType: InvalidAccessTokenError, wantMsg: "invalid access token"},
		{name: "serialize", err: NewSerializeError("serialize request body", cause), wantType: SerializeError, wantMsg: "serialize request body: boom", unwraps: true},
		{name: "deserialize", err: NewDeserializeError("parse envelope", cause), wantType: DeserializeError, wantMsg: "deserialize response body: parse envelope: boom", unwraps: true},
		{name: "timeout", err: NewTimeoutError("request timeout", 30*time.Second), wantType: TimeoutError, wantMsg: "timeout error: request timeout (timeout: 30s)"},
		{name: "network", err: NewNetworkError("request execution failed", cause), wantType: NetworkError, wantMsg: "network error: request execution failed: boom", unwraps: true},
		{name: "network without cause", err: NewNetworkError("closed", nil), wantType: NetworkError, wantMsg: "network error: closed"},
		{name: "canceled", err: NewCanceledError(cause), wantType: CanceledError, wantMsg: "request canceled: boom", unwraps: true},
		{name: "bad status", err: NewBadStatusError(http.StatusTooManyRequests, nil), wantType: BadStatusError, wantMsg: "bad status: 429 Too Many Requests"},
		{name: "openapi", err: NewOpenAPIError(401004, "token expired", "tr-1"), wantType: DomainError, wantMsg: "openapi error: code=401004: token expired (trace id: tr-1)"},
		{name: "openapi without trace", err: NewOpenAPIError(1, "no", ""), wantType: DomainError, wantMsg: "openapi error: code=1: no"},
		{name: "unexpected response", err: NewUnexpectedResponseError(""), wantType: UnexpectedResponseError, wantMsg: "unexpected response: missing data"},
		{name: "validation", err: NewValidationError("request already sent", "request"), wantType: ValidationError, wantMsg: "validation error: request already sent (field: request)"},
		{name: "validation without field", err: NewValidationError("bad", ""), wantType: ValidationError, wantMsg: "validation error: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type())
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsErrorType(tt.err, tt.wantType))
			assert.True(t, IsErrorType(fmt.Errorf("wrapped: %w", tt.err), tt.wantType))
			assert.Equal(t, tt.unwraps, errors.Is(tt.err, cause))
		})
	}
}

func TestIsErrorTypeNonClientErrors(t *testing.T) {
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(errors.New("plain"), NetworkError))
	assert.False(t, IsErrorType(NewTimeoutError("x", 0), NetworkError))
}

func TestStatusHelpers(t *testing.T) {
	limited := NewBadStatusError(http.StatusTooManyRequests, []byte("slow"))

	assert.True(t, IsHTTPStatusError(limited, http.StatusTooManyRequests))
	assert.False(t, IsHTTPStatusError(limited, http.StatusBadGateway))
	assert.True(t, IsRateLimited(fmt.Errorf("ctx: %w", limited)))
	assert.False(t, IsRateLimited(NewBadStatusError(http.StatusBadGateway, nil)))
	assert.False(t, IsRateLimited(NewOpenAPIError(429, "slow", "")))
	assert.False(t, IsRateLimited(nil))

	var statusErr *badStatusError
	assert.ErrorAs(t, limited, &statusErr)
	assert.Equal(t, []byte("slow"), statusErr.Body())
}

func TestAsOpenAPIError(t *testing.T) {
	apiErr, found := AsOpenAPIError(fmt.Errorf("call: %w", NewOpenAPIError(7, "denied", "tr")))
	assert.True(t, found)
	assert.Equal(t, int64(7), apiErr.Code)
	assert.Equal(t, "denied", apiErr.Message)
	assert.Equal(t, "tr", apiErr.TraceID)

	_, found = AsOpenAPIError(NewNetworkError("x", nil))
	assert.False(t, found)
}

func TestCanceledErrorWrapsContext(t *testing.T) {
	err := NewCanceledError(context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ClientError represents the failure kinds a Send can return
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	InvalidAPIKeyError      ErrorType = "invalid_api_key"
	InvalidAccessTokenError ErrorType = "invalid_access_token"
	SerializeError          ErrorType = "serialize"
	DeserializeError        ErrorType = "deserialize"
	TimeoutError            ErrorType = "timeout"
	NetworkError            ErrorType = "network"
	CanceledError           ErrorType = "canceled"
	BadStatusError          ErrorType = "bad_status"
	DomainError             ErrorType = "openapi"
	UnexpectedResponseError ErrorType = "unexpected_response"
	ValidationError         ErrorType = "validation"
)

// credentialError reports an API key or access token that cannot be sent as a header value
type credentialError struct {
	kind ErrorType
}

func (e *credentialError) Error() string {
	if e.kind == InvalidAPIKeyError {
		return "invalid api key"
	}
	return "invalid access token"
}

func (e *credentialError) Type() ErrorType {
	return e.kind
}

// serializeError represents a body or query that could not be encoded
type serializeError struct {
	message string
	wrapped error
}

func (e *serializeError) Error() string {
	return fmt.Sprintf("%s: %v", e.message, e.wrapped)
}

func (e *serializeError) Type() ErrorType {
	return SerializeError
}

func (e *serializeError) Unwrap() error {
	return e.wrapped
}

// deserializeError represents a response body or data that could not be decoded
type deserializeError struct {
	message string
	wrapped error
}

func (e *deserializeError) Error() string {
	return fmt.Sprintf("deserialize response body: %s: %v", e.message, e.wrapped)
}

func (e *deserializeError) Type() ErrorType {
	return DeserializeError
}

func (e *deserializeError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents an attempt that exceeded its bound
type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

// networkError represents transport failures
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// canceledError represents the caller abandoning the call
type canceledError struct {
	wrapped error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("request canceled: %v", e.wrapped)
}

func (e *canceledError) Type() ErrorType {
	return CanceledError
}

func (e *canceledError) Unwrap() error {
	return e.wrapped
}

// badStatusError represents a response whose body was not an envelope
type badStatusError struct {
	statusCode int
	body       []byte
}

func (e *badStatusError) Error() string {
	return fmt.Sprintf("bad status: %d %s", e.statusCode, http.StatusText(e.statusCode))
}

func (e *badStatusError) Type() ErrorType {
	return BadStatusError
}

func (e *badStatusError) StatusCode() int {
	return e.statusCode
}

func (e *badStatusError) Body() []byte {
	return e.body
}

// OpenAPIError is an error reported by the gateway in the response envelope.
type OpenAPIError struct {
	Code    int64
	Message string
	// TraceID is the gateway's x-trace-id, empty when the response had none
	TraceID string
}

func (e *OpenAPIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("openapi error: code=%d: %s (trace id: %s)", e.Code, e.Message, e.TraceID)
	}
	return fmt.Sprintf("openapi error: code=%d: %s", e.Code, e.Message)
}

func (e *OpenAPIError) Type() ErrorType {
	return DomainError
}

// unexpectedResponseError represents a success envelope that carried no data
type unexpectedResponseError struct {
	traceID string
}

func (e *unexpectedResponseError) Error() string {
	if e.traceID != "" {
		return fmt.Sprintf("unexpected response: missing data (trace id: %s)", e.traceID)
	}
	return "unexpected response: missing data"
}

func (e *unexpectedResponseError) Type() ErrorType {
	return UnexpectedResponseError
}

// validationError represents builder misuse
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// NewInvalidAPIKeyError creates an invalid API key error
func NewInvalidAPIKeyError() ClientError {
	return &credentialError{kind: InvalidAPIKeyError}
}

// NewInvalidAccessTokenError creates an invalid access token error
func NewInvalidAccessTokenError() ClientError {
	return &credentialError{kind: InvalidAccessTokenError}
}

// NewSerializeError creates a serialize error; message names what was being encoded
func NewSerializeError(message string, wrapped error) ClientError {
	return &serializeError{
		message: message,
		wrapped: wrapped,
	}
}

// NewDeserializeError creates a deserialize error
func NewDeserializeError(message string, wrapped error) ClientError {
	return &deserializeError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewCanceledError creates a canceled error wrapping the context error
func NewCanceledError(wrapped error) ClientError {
	return &canceledError{wrapped: wrapped}
}

// NewBadStatusError creates a bad status error
func NewBadStatusError(statusCode int, body []byte) ClientError {
	return &badStatusError{
		statusCode: statusCode,
		body:       body,
	}
}

// NewOpenAPIError creates a gateway domain error
func NewOpenAPIError(code int64, message, traceID string) *OpenAPIError {
	return &OpenAPIError{
		Code:    code,
		Message: message,
		TraceID: traceID,
	}
}

// NewUnexpectedResponseError creates an unexpected response error
func NewUnexpectedResponseError(traceID string) ClientError {
	return &unexpectedResponseError{traceID: traceID}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is a bad status error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var statusErr *badStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode() == statusCode
	}
	return false
}

// IsRateLimited reports whether err is the gateway's 429 response.
func IsRateLimited(err error) bool {
	return IsHTTPStatusError(err, http.StatusTooManyRequests)
}

// AsOpenAPIError extracts the gateway domain error from err.
func AsOpenAPIError(err error) (*OpenAPIError, bool) {
	var apiErr *OpenAPIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

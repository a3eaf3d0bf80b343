package gateway

import (
	"fmt"
	"net/http"
)

// Envelope codes the gateway answers with. Zero means success.
const (
	CodeBadRequest       int64 = 400001
	CodeInvalidAppKey    int64 = 401001
	CodeTimestampExpired int64 = 401002
	CodeInvalidToken     int64 = 401003
	CodeSignatureInvalid int64 = 401004
	CodeNotFound         int64 = 404001
	CodeMethodNotAllowed int64 = 405001
	CodeInternal         int64 = 500001
)

// Error is a domain failure reported inside the response envelope.
type Error struct {
	Status  int
	Code    int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %d: %s (status: %d)", e.Code, e.Message, e.Status)
}

// NewError creates an envelope error answered with the given HTTP status.
func NewError(status int, code int64, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

type envelope struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func statusToCode(status int) int64 {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeInvalidAppKey
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	default:
		return CodeInternal
	}
}

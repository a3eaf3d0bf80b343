package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

var (
	errMissingCode = errors.New("missing code")
	jsonNull       = []byte("null")
)

// envelope is the gateway's response wrapper. code is mandatory and fits in
// 32 bits; message defaults to empty.
type envelope struct {
	Code    *int32          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func parseEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Code == nil {
		return nil, errMissingCode
	}
	return &env, nil
}

// classify turns one HTTP response into the envelope's data or an error.
func classify(status int, traceID string, body []byte) ([]byte, error) {
	env, err := parseEnvelope(body)
	if err != nil {
		if status == http.StatusOK {
			return nil, NewDeserializeError("parse envelope", err)
		}
		return nil, NewBadStatusError(status, body)
	}

	if *env.Code != 0 {
		return nil, NewOpenAPIError(int64(*env.Code), env.Message, traceID)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil, NewUnexpectedResponseError(traceID)
	}
	return data, nil
}

package signature

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gaborage/go-openapi/timestamp"
)

// Header names read and written by the protocol
const (
	HeaderAPIKey        = "X-Api-Key"
	HeaderAuthorization = "Authorization"
	HeaderTimestamp     = "X-Timestamp"
	HeaderSignature     = "X-Api-Signature"
)

// Sentinel errors returned by Verify
var (
	ErrMissingHeader     = errors.New("missing signed header")
	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Verify recomputes the signature of a received request and compares it with
// the X-Api-Signature header. body must be the exact bytes the client sent.
func Verify(req *http.Request, body []byte, appSecret string) error {
	appKey := req.Header.Get(HeaderAPIKey)
	token := req.Header.Get(HeaderAuthorization)
	rawTS := req.Header.Get(HeaderTimestamp)
	got := req.Header.Get(HeaderSignature)

	for name, v := range map[string]string{
		HeaderAPIKey:        appKey,
		HeaderAuthorization: token,
		HeaderTimestamp:     rawTS,
		HeaderSignature:     got,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}
	}

	ts, err := timestamp.Parse(rawTS)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	digest, ok := strings.CutPrefix(got, headerPrefix)
	if !ok {
		return ErrMalformedHeader
	}

	want := Digest(Params{
		Method:      req.Method,
		URL:         req.URL,
		Body:        body,
		AppKey:      appKey,
		AccessToken: token,
		AppSecret:   appSecret,
		Timestamp:   ts,
	})
	if !hmac.Equal([]byte(digest), []byte(want)) {
		return ErrSignatureMismatch
	}
	return nil
}

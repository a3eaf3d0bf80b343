// Package signature computes and verifies the request signature carried in the
// X-Api-Signature header.
//
// The canonical request joins method, path, raw query, the signed headers and a
// SHA-1 digest of the body with "|". Its SHA-1 digest is then signed with
// HMAC-SHA256 keyed by the app secret. Client and gateway call the same code,
// so both sides agree byte for byte.
package signature

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // part of the wire protocol, not used for secrecy
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/gaborage/go-openapi/timestamp"
)

const (
	// Algorithm prefixes both the string to sign and the header value
	Algorithm = "HMAC-SHA256"
	// SignedHeaders lists the headers bound into the signature, in order
	SignedHeaders = "authorization;x-api-key;x-timestamp"

	headerPrefix    = Algorithm + " SignedHeaders=" + SignedHeaders + ", Signature="
	fieldSeparator  = "|"
	headerSeparator = "\n"
)

// Params is everything bound into one signature.
type Params struct {
	Method      string
	URL         *url.URL
	Body        []byte
	AppKey      string
	AccessToken string
	AppSecret   string
	Timestamp   timestamp.Timestamp
}

// Signer produces the X-Api-Signature header value.
type Signer interface {
	Sign(p Params) string
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(p Params) string

// Sign calls f.
func (f SignerFunc) Sign(p Params) string {
	return f(p)
}

// HMAC is the default signer.
type HMAC struct{}

// Sign returns the full header value, including algorithm and signed headers.
func (HMAC) Sign(p Params) string {
	return headerPrefix + Digest(p)
}

// Digest returns only the hex HMAC, without the header decoration.
func Digest(p Params) string {
	stringToSign := Algorithm + fieldSeparator + sha1Hex([]byte(CanonicalRequest(p)))
	mac := hmac.New(sha256.New, []byte(p.AppSecret))
	mac.Write([]byte(stringToSign))
	return hex.EncodeToString(mac.Sum(nil))
}

// CanonicalRequest builds the string whose digest is signed.
func CanonicalRequest(p Params) string {
	var path, rawQuery string
	if p.URL != nil {
		path = p.URL.EscapedPath()
		rawQuery = p.URL.RawQuery
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(p.Method))
	b.WriteString(fieldSeparator)
	b.WriteString(path)
	b.WriteString(fieldSeparator)
	b.WriteString(rawQuery)
	b.WriteString(fieldSeparator)
	b.WriteString("authorization:" + p.AccessToken + headerSeparator)
	b.WriteString("x-api-key:" + p.AppKey + headerSeparator)
	b.WriteString("x-timestamp:" + p.Timestamp.String() + headerSeparator)
	b.WriteString(fieldSeparator)
	b.WriteString(SignedHeaders)
	b.WriteString(fieldSeparator)
	if len(p.Body) > 0 {
		b.WriteString(sha1Hex(p.Body))
	}
	return b.String()
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // protocol digest
	return hex.EncodeToString(sum[:])
}

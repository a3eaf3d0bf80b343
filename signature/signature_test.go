package signature

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-openapi/timestamp"
)

const (
	testAppKey    = "app-key"
	testAppSecret = "app-secret"
	testToken     = "token-123"
	testOrderURL  = "https://openapi.example.com/v1/trade/order?symbol=700.HK"
	testOrderBody = `{"qty":100}`
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func orderParams(t *testing.T) Params {
	return Params{
		Method:      "post",
		URL:         mustURL(t, testOrderURL),
		Body:        []byte(testOrderBody),
		AppKey:      testAppKey,
		AccessToken: testToken,
		AppSecret:   testAppSecret,
		Timestamp:   timestamp.FromUnixMilli(1700000000123),
	}
}

func TestCanonicalRequest(t *testing.T) {
	want := "POST|/v1/trade/order|symbol=700.HK|" +
		"authorization:token-123\nx-api-key:app-key\nx-timestamp:1700000000.123\n|" +
		"authorization;x-api-key;x-timestamp|" +
		"358bcccf11b119df985f6d3f8315bf70acc4ab05"
	assert.Equal(t, want, CanonicalRequest(orderParams(t)))
}

func TestCanonicalRequestWithoutBody(t *testing.T) {
	p := orderParams(t)
	p.Method = "GET"
	p.URL = mustURL(t, "https://openapi.example.com/v1/ping")
	p.Body = nil

	want := "GET|/v1/ping||" +
		"authorization:token-123\nx-api-key:app-key\nx-timestamp:1700000000.123\n|" +
		"authorization;x-api-key;x-timestamp|"
	assert.Equal(t, want, CanonicalRequest(p))
}

func TestDigestKnownAnswers(t *testing.T) {
	t.Run("with body and query", func(t *testing.T) {
		assert.Equal(t,
			"49fcd15778d59d31071a7a2dea7592232c3b5ac9201208ab08fe6d47dc3f6528",
			Digest(orderParams(t)))
	})

	t.Run("no body no query", func(t *testing.T) {
		p := orderParams(t)
		p.Method = "GET"
		p.URL = mustURL(t, "https://openapi.example.com/v1/ping")
		p.Body = nil
		assert.Equal(t,
			"f05e56a9181e3dfec6e0fee2119dfa570a55867fc7c05a9924c5e18c7ede8dde",
			Digest(p))
	})
}

func TestSignHeaderFormat(t *testing.T) {
	got := HMAC{}.Sign(orderParams(t))
	assert.Equal(t,
		"HMAC-SHA256 SignedHeaders=authorization;x-api-key;x-timestamp, Signature="+
			"49fcd15778d59d31071a7a2dea7592232c3b5ac9201208ab08fe6d47dc3f6528",
		got)
}

func TestSignChangesWithEveryInput(t *testing.T) {
	base := HMAC{}.Sign(orderParams(t))

	mutations := map[string]func(p *Params){
		"method":    func(p *Params) { p.Method = "PUT" },
		"path":      func(p *Params) { p.URL = mustURL(t, "https://openapi.example.com/v1/trade/orders?symbol=700.HK") },
		"query":     func(p *Params) { p.URL = mustURL(t, "https://openapi.example.com/v1/trade/order?symbol=9988.HK") },
		"body":      func(p *Params) { p.Body = []byte(`{"qty":200}`) },
		"app key":   func(p *Params) { p.AppKey = "other" },
		"token":     func(p *Params) { p.AccessToken = "other" },
		"secret":    func(p *Params) { p.AppSecret = "other" },
		"timestamp": func(p *Params) { p.Timestamp = timestamp.FromUnixMilli(1700000000124) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := orderParams(t)
			mutate(&p)
			assert.NotEqual(t, base, HMAC{}.Sign(p))
		})
	}
}

func TestSignIgnoresHost(t *testing.T) {
	p := orderParams(t)
	other := orderParams(t)
	other.URL = mustURL(t, "https://openapi.example.cn/v1/trade/order?symbol=700.HK")
	assert.Equal(t, HMAC{}.Sign(p), HMAC{}.Sign(other))
}

func signedRequest(t *testing.T, p Params) *http.Request {
	t.Helper()
	req := httptest.NewRequest(p.Method, p.URL.String(), bytes.NewReader(p.Body))
	req.Header.Set(HeaderAPIKey, p.AppKey)
	req.Header.Set(HeaderAuthorization, p.AccessToken)
	req.Header.Set(HeaderTimestamp, p.Timestamp.String())
	req.Header.Set(HeaderSignature, HMAC{}.Sign(p))
	return req
}

func TestVerify(t *testing.T) {
	t.Run("valid signature", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		assert.NoError(t, Verify(req, p.Body, testAppSecret))
	})

	t.Run("tampered body", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		assert.ErrorIs(t, Verify(req, []byte(`{"qty":1}`), testAppSecret), ErrSignatureMismatch)
	})

	t.Run("wrong secret", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		assert.ErrorIs(t, Verify(req, p.Body, "nope"), ErrSignatureMismatch)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		req.Header.Del(HeaderTimestamp)
		err := Verify(req, p.Body, testAppSecret)
		assert.ErrorIs(t, err, ErrMissingHeader)
		assert.Contains(t, err.Error(), HeaderTimestamp)
	})

	t.Run("signature without algorithm prefix", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		req.Header.Set(HeaderSignature, Digest(p))
		assert.ErrorIs(t, Verify(req, p.Body, testAppSecret), ErrMalformedHeader)
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		p := orderParams(t)
		p.Method = http.MethodPost
		req := signedRequest(t, p)
		req.Header.Set(HeaderTimestamp, "yesterday")
		assert.ErrorIs(t, Verify(req, p.Body, testAppSecret), ErrMalformedHeader)
	})
}

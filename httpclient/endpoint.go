package httpclient

import (
	"context"
	"net/url"
	"strings"
)

// baseURL resolves the gateway for one attempt. A configured base URL wins
// without asking the detector.
func (c *Client) baseURL(ctx context.Context) string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	if c.detector.IsDomestic(ctx) {
		return DomesticBaseURL
	}
	return InternationalBaseURL
}

// endpoint joins base and path. A non-nil rawQuery replaces any query the
// path already carries; nil keeps it.
func endpoint(base, path string, rawQuery *string) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return nil, NewValidationError("invalid request url: "+err.Error(), "path")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, NewValidationError("base url must be absolute", "base_url")
	}
	if rawQuery != nil {
		u.RawQuery = *rawQuery
	}
	return u, nil
}

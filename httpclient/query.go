package httpclient

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// QueryEncoder lets a query type produce its own encoded query string.
type QueryEncoder interface {
	EncodeQuery() (string, error)
}

// encodeQuery renders v as a raw query string. Structs are encoded through
// their `url` tags.
func encodeQuery(v any) (string, error) {
	switch q := v.(type) {
	case QueryEncoder:
		return q.EncodeQuery()
	case url.Values:
		return q.Encode(), nil
	}
	values, err := query.Values(v)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

package httpclient

import (
	"context"
	"net/http"
)

// Response keeps the raw body so callers can log what a market API rejected.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Attempts   int
}

// BodySnippet returns at most n bytes of the body.
func (r *Response) BodySnippet(n int) string {
	if len(r.Body) <= n {
		return string(r.Body)
	}
	return string(r.Body[:n]) + "..."
}

// HTTPClient is the read-only JSON client every candle source shares.
type HTTPClient interface {
	Get(ctx context.Context, endpoint string, query map[string]string, result interface{}) (*Response, error)
}

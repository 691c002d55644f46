package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type RestyClient struct {
	client *resty.Client
}

type Option func(*resty.Client)

// WithRetry retries network errors and 5xx responses with backoff between waitTime and maxWaitTime.
func WithRetry(count int, waitTime, maxWaitTime time.Duration) Option {
	return func(c *resty.Client) {
		if count <= 0 {
			return
		}
		c.SetRetryCount(count).
			SetRetryWaitTime(waitTime).
			SetRetryMaxWaitTime(maxWaitTime).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= http.StatusInternalServerError
			})
	}
}

func WithHeaders(headers map[string]string) Option {
	return func(c *resty.Client) {
		c.SetHeaders(headers)
	}
}

func New(baseURL string, timeout time.Duration, bearerToken string, opts ...Option) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetAuthToken(bearerToken)

	for _, opt := range opts {
		opt(client)
	}

	return &RestyClient{client: client}
}

// Get decodes a JSON body into result. A non-2xx status is not an error here;
// callers inspect Response.StatusCode.
func (rc *RestyClient) Get(ctx context.Context, endpoint string, query map[string]string, result interface{}) (*Response, error) {
	req := rc.client.R().SetContext(ctx).SetResult(result)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(endpoint)
	return toResponse(resp), err
}

func toResponse(resp *resty.Response) *Response {
	if resp == nil {
		return &Response{}
	}
	attempts := 1
	if resp.Request != nil {
		attempts = resp.Request.Attempt
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
		Attempts:   attempts,
	}
}

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClient_GetDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		assert.Equal(t, "EUR/USD", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, "")

	var out struct {
		Status string `json:"status"`
	}
	resp, err := client.Get(context.Background(), "/ping", map[string]string{"symbol": "EUR/USD"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", out.Status)
}

func TestRestyClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, "", WithRetry(3, time.Millisecond, 5*time.Millisecond))

	resp, err := client.Get(context.Background(), "/", nil, &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, resp.Attempts)
}

func TestResponse_BodySnippet(t *testing.T) {
	resp := &Response{Body: []byte(`{"code":429,"message":"rate limited"}`)}
	assert.Equal(t, `{"code":429`+"...", resp.BodySnippet(11))
	assert.Equal(t, string(resp.Body), resp.BodySnippet(100))
}

package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	t.Setenv("TAVILY_TEST_KEY", "secret")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "TAVILY_TEST_KEY", MaxRetries: retries})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("TAVILY_MISSING", "")
	_, err := NewClient(Config{APIKeyEnv: "TAVILY_MISSING"})
	require.Error(t, err)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is rag", req.Query)
		assert.Equal(t, 3, req.MaxResults)
		_, _ = w.Write([]byte(`{"results":[
			{"title":"RAG","url":"https://a.example","content":"Retrieval augmented generation","score":0.9},
			{"title":"No score","url":"https://b.example","content":"snippet"}]}`))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL, 0).Search(context.Background(), "what is rag", 3)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "https://a.example", res[0].URL)
	require.NotNil(t, res[0].Score)
	assert.InDelta(t, 0.9, *res[0].Score, 1e-9)
	assert.Nil(t, res[1].Score)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL, 2).Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.EqualValues(t, 2, calls.Load())
}

func TestSearchClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Search(context.Background(), "q", 1)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRetryDelayCapped(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 5*time.Second, retryDelay(10))
	for _, attempt := range []int{36, 63, 64, 1000} {
		assert.Equal(t, 5*time.Second, retryDelay(attempt), "attempt %d", attempt)
	}
}

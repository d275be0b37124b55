package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veiloq/bitmart-connector/pkg/logging"
)

func testConfig() *Config {
	config := DefaultConfig()
	config.Logger = logging.NewTextLoggerTo(io.Discard)
	config.RetryDelay = 10 * time.Millisecond
	return config
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(testConfig())

	var out map[string]string
	err := client.GetJSON(context.Background(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])
}

func TestGetJSONServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig())

	var out map[string]string
	err := client.GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)

	// The default configuration makes exactly one attempt: server errors are
	// not retried unless the caller opts in.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetriesWhenConfigured(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	config := testConfig()
	config.MaxAttempts = 5
	client := NewClient(config)

	var out map[string]string
	err := client.GetJSON(context.Background(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "ok", out["status"])
}

func TestPostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "abc"})
	}))
	defer server.Close()

	client := NewClient(testConfig())

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	var out map[string]string
	err := client.PostForm(context.Background(), server.URL, form, &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", out["access_token"])
}

func TestUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig())

	var out map[string]string
	err := client.GetJSON(context.Background(), server.URL, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

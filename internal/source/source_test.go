package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
)

func TestHTTPSource_ExecuteQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/query", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "SELECT * FROM ledgers", body["query"])

		json.NewEncoder(w).Encode(QueryResult{
			Success: true,
			Rows: []map[string]interface{}{
				{"name": "Cash", "closingBalance": "₹5,000 Dr"},
			},
		})
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, logger.NewTestLogger(t))
	result, err := src.ExecuteQuery(context.Background(), "SELECT * FROM ledgers")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Cash", result.Rows[0]["name"])
}

func TestHTTPSource_ConnectionRefusedMapsToNotConnected(t *testing.T) {
	src := NewHTTPSource("http://127.0.0.1:1", time.Second, logger.NewTestLogger(t))

	_, err := src.ExecuteQuery(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestHTTPSource_TimeoutMapsToQueryTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, logger.NewTestLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := src.ExecuteQuery(ctx, "slow query")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryTimeout))
}

func TestHTTPSource_RetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(QueryResult{Success: true})
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, 5*time.Second, logger.NewTestLogger(t))
	result, err := src.ExecuteQuery(context.Background(), "q")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSource_ConnectionRefusedFailsFast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	var calls int32
	src := NewHTTPSource(addr, time.Second, logger.NewTestLogger(t))
	src.client.Transport = countingTransport{calls: &calls}

	_, err := src.ExecuteQuery(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type countingTransport struct{ calls *int32 }

func (c countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	atomic.AddInt32(c.calls, 1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestHTTPSource_BadStatusIsQueryFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, time.Second, logger.NewTestLogger(t))
	_, err := src.ExecuteQuery(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryFailed))
}

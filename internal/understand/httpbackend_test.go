package understand

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

	"ledger-assistant/internal/common/logger"
)

func TestHTTPBackendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/understand", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "total sales", body["query"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"kind":        "query",
			"query":       "SELECT 1",
			"mustExecute": true,
			"confidence":  0.7,
		})
	}))
	defer srv.Close()

	b := NewHTTPBackend("gpt", srv.URL, "secret", 5*time.Second, 2, logger.NewNoOpLogger())
	sugg, err := b.Attempt(context.Background(), "total sales", nil)
	require.NoError(t, err)
	require.NotNil(t, sugg)
	assert.Equal(t, KindQuery, sugg.Kind)
	assert.True(t, sugg.MustExecute)
	assert.Equal(t, "gpt", sugg.Backend)
}

func TestHTTPBackendRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"kind": "plain-explanation", "explanation": "hmm"})
	}))
	defer srv.Close()

	b := NewHTTPBackend("gpt", srv.URL, "", 5*time.Second, 3, logger.NewNoOpLogger())
	sugg, err := b.Attempt(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, KindExplanation, sugg.Kind)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestHTTPBackendExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := NewHTTPBackend("gpt", srv.URL, "", 5*time.Second, 1, logger.NewNoOpLogger())
	_, err := b.Attempt(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrUnderstandingFailed)
}

func TestHTTPBackendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	b := NewHTTPBackend("gpt", srv.URL, "", 5*time.Second, 0, logger.NewNoOpLogger())
	_, err := b.Attempt(ctx, "q", nil)
	assert.ErrorIs(t, err, ErrUnderstandingTimeout)
}

func TestHTTPBackendRejectsInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"kind": "rm -rf"})
	}))
	defer srv.Close()

	b := NewHTTPBackend("gpt", srv.URL, "", 5*time.Second, 0, logger.NewNoOpLogger())
	_, err := b.Attempt(context.Background(), "q", nil)
	assert.ErrorIs(t, err, ErrUnderstandingFailed)
}

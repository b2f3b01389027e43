package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)

	return NewClient(es, "ledgers", logger.NewNoOpLogger()), srv
}

func esResponse(w http.ResponseWriter, sources []map[string]interface{}) {
	hits := make([]map[string]interface{}, len(sources))
	for i, src := range sources {
		hits[i] = map[string]interface{}{"_source": src}
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	})
}

func TestSearchLedgers_ParsesHits(t *testing.T) {
	var gotBody map[string]interface{}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		esResponse(w, []map[string]interface{}{
			{"name": "Sharma & Sons", "parent_group": "Sundry Debtors", "closing_balance": "₹2,500.00 Cr"},
			{"name": "Sharma Traders", "parent_group": "Sundry Creditors", "closing_balance": 1200.5},
		})
	})

	records, err := client.SearchLedgers(context.Background(), "tenant-1", "sharma", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Sharma & Sons", records[0].Name)
	assert.Equal(t, "Sundry Debtors", records[0].ParentGroup)
	assert.InDelta(t, -2500.0, records[0].ClosingBalance, 0.001)
	assert.InDelta(t, 1200.5, records[1].ClosingBalance, 0.001)

	// The tenant filter has to ride along with every search.
	raw, _ := json.Marshal(gotBody)
	assert.Contains(t, string(raw), `"tenant_id":"tenant-1"`)
	assert.Contains(t, string(raw), `"query":"sharma"`)
}

func TestSearchLedgers_EmptyResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		esResponse(w, nil)
	})

	records, err := client.SearchLedgers(context.Background(), "tenant-1", "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSearchLedgers_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
	})

	records, err := client.SearchLedgers(context.Background(), "tenant-1", "sharma", 10)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.Nil(t, records)
}

func TestSearchLedgers_Unreachable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.SearchLedgers(context.Background(), "tenant-1", "sharma", 10)
	assert.ErrorIs(t, err, ErrSearchFailed)
}

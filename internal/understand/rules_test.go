package understand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBackendPatterns(t *testing.T) {
	rb := NewRuleBackend()

	tests := []struct {
		query      string
		wantKind   SuggestionKind
		wantQuery  string
		wantSearch string
	}{
		{"list all ledgers", KindQuery, "SELECT name, parent, closing_balance FROM ledgers", ""},
		{"show me the ledgers", KindQuery, "SELECT name, parent, closing_balance FROM ledgers", ""},
		{"list stock items", KindQuery, "SELECT name, parent, unit, closing_qty, closing_value FROM stock_items", ""},
		{"how many ledgers do I have", KindQuery, "SELECT COUNT(*) AS count FROM ledgers", ""},
		{"balance of hdfc bank", KindSearchTerm, "", "hdfc bank"},
		{"sharma traders ka balance", KindSearchTerm, "", "sharma traders"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sugg, err := rb.Attempt(context.Background(), tt.query, nil)
			require.NoError(t, err)
			require.NotNil(t, sugg)
			assert.Equal(t, tt.wantKind, sugg.Kind)
			if tt.wantQuery != "" {
				assert.Equal(t, tt.wantQuery, sugg.Query)
				assert.True(t, sugg.MustExecute)
			}
			if tt.wantSearch != "" {
				assert.Equal(t, tt.wantSearch, sugg.SearchTerm)
			}
			assert.Greater(t, sugg.Confidence, 0.0)
			assert.Equal(t, "rule-fallback", sugg.Backend)
		})
	}
}

func TestRuleBackendNoMatch(t *testing.T) {
	rb := NewRuleBackend()
	sugg, err := rb.Attempt(context.Background(), "tell me a joke", nil)
	require.NoError(t, err)
	assert.Nil(t, sugg)
}

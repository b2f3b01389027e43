package understand

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

type stubBackend struct {
	name string
	sugg *Suggestion
	err  error
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Attempt(context.Context, string, map[string]interface{}) (*Suggestion, error) {
	return s.sugg, s.err
}

type stubSource struct {
	result *source.QueryResult
	err    error
	got    string
}

func (s *stubSource) ExecuteQuery(_ context.Context, queryText string) (*source.QueryResult, error) {
	s.got = queryText
	return s.result, s.err
}

type stubSearcher struct {
	records []models.LedgerRecord
	err     error
}

func (s *stubSearcher) SearchLedgers(context.Context, string, string, int) ([]models.LedgerRecord, error) {
	return s.records, s.err
}

func req(text string) models.QueryRequest {
	return models.QueryRequest{Text: text, TenantID: "t1"}
}

func TestAdapterExecutesQuerySuggestion(t *testing.T) {
	src := &stubSource{result: &source.QueryResult{Success: true, Rows: []map[string]interface{}{
		{"name": "Cash", "closing_balance": 750.0},
	}}}
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "gpt", sugg: &Suggestion{Kind: KindQuery, Query: "SELECT 1", MustExecute: true}},
	}, src, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Equal(t, "gpt", ans.Backend)
	assert.Equal(t, "SELECT 1", src.got)
	assert.Contains(t, ans.HumanText, "closing_balance: 750")
	assert.Contains(t, ans.HumanText, "name: Cash")
}

func TestAdapterSkipsPlainExplanation(t *testing.T) {
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "first", sugg: &Suggestion{Kind: KindExplanation, Explanation: "cannot help"}},
		&stubBackend{name: "second", sugg: &Suggestion{Kind: KindAnalysis, Explanation: "sales grew 12%"}},
	}, &stubSource{}, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Equal(t, "second", ans.Backend)
	assert.Equal(t, "sales grew 12%", ans.HumanText)
}

func TestAdapterSkipsFailedBackend(t *testing.T) {
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "down", err: errors.New("rate limited")},
		&stubBackend{name: "up", sugg: &Suggestion{Kind: KindAnalysis, Explanation: "ok"}},
	}, &stubSource{}, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Equal(t, "up", ans.Backend)
}

func TestAdapterSearchTermWithSearcher(t *testing.T) {
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "gpt", sugg: &Suggestion{Kind: KindSearchTerm, SearchTerm: "hdfc"}},
	}, &stubSource{}, &stubSearcher{records: []models.LedgerRecord{
		{Name: "HDFC Bank", ClosingBalance: 1200},
	}}, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Contains(t, ans.HumanText, "HDFC Bank")
	assert.Empty(t, ans.SearchTerm)
}

func TestAdapterSearchTermWithoutSearcher(t *testing.T) {
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "gpt", sugg: &Suggestion{Kind: KindSearchTerm, SearchTerm: "hdfc"}},
	}, &stubSource{}, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Equal(t, "hdfc", ans.SearchTerm)
	assert.Empty(t, ans.HumanText)
}

func TestAdapterFallsThroughToRules(t *testing.T) {
	src := &stubSource{result: &source.QueryResult{Success: true, Rows: []map[string]interface{}{
		{"name": "Cash"},
	}}}
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "down", err: errors.New("quota")},
	}, src, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("list all ledgers"), nil)
	require.NotNil(t, ans)
	assert.Equal(t, "rule-fallback", ans.Backend)
	assert.Equal(t, "SELECT name, parent, closing_balance FROM ledgers", src.got)
}

func TestAdapterTotalExhaustionReturnsNil(t *testing.T) {
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "down", err: errors.New("quota")},
	}, &stubSource{}, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("tell me a joke"), nil)
	assert.Nil(t, ans)
}

func TestAdapterRowLimit(t *testing.T) {
	rows := make([]map[string]interface{}, 15)
	for i := range rows {
		rows[i] = map[string]interface{}{"n": i}
	}
	src := &stubSource{result: &source.QueryResult{Success: true, Rows: rows}}
	a := NewAdapter([]UnderstandingBackend{
		&stubBackend{name: "gpt", sugg: &Suggestion{Kind: KindQuery, Query: "q", MustExecute: true}},
	}, src, nil, 10, logger.NewNoOpLogger())

	ans := a.Understand(context.Background(), req("q"), nil)
	require.NotNil(t, ans)
	assert.Contains(t, ans.HumanText, "…and 5 more rows")
}

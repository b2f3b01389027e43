package understand

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

// LedgerSearcher resolves a smart-search term against the ledger index.
type LedgerSearcher interface {
	SearchLedgers(ctx context.Context, tenantID, term string, size int) ([]models.LedgerRecord, error)
}

// Answer is the adapter's resolved output, ready for the orchestrator.
type Answer struct {
	Data      interface{}
	HumanText string
	Backend   string
	// SearchTerm is set when no searcher is wired and the term should be
	// handed to the ledger category chain instead.
	SearchTerm string
}

// Adapter walks the backend list in priority order, skipping plain
// explanations and failures, then falls through to the rule backend. A
// backend failure never surfaces to the end user.
type Adapter struct {
	backends []UnderstandingBackend
	src      source.AccountingSource
	search   LedgerSearcher
	maxRows  int
	logger   logger.Logger
}

func NewAdapter(backends []UnderstandingBackend, src source.AccountingSource, search LedgerSearcher, maxRows int, log logger.Logger) *Adapter {
	if maxRows <= 0 {
		maxRows = 10
	}
	all := make([]UnderstandingBackend, 0, len(backends)+1)
	all = append(all, backends...)
	all = append(all, NewRuleBackend())
	return &Adapter{
		backends: all,
		src:      src,
		search:   search,
		maxRows:  maxRows,
		logger:   log.WithFields(map[string]interface{}{"component": "understanding-adapter"}),
	}
}

// Understand returns nil when no backend produced anything actionable; the
// caller then advances to the next pipeline strategy.
func (a *Adapter) Understand(ctx context.Context, req models.QueryRequest, conversation map[string]interface{}) *Answer {
	for _, b := range a.backends {
		sugg, err := b.Attempt(ctx, req.Text, conversation)
		if err != nil {
			a.logger.Warn("understanding backend failed", map[string]interface{}{
				"backend": b.Name(),
				"error":   err.Error(),
			})
			continue
		}
		if sugg == nil || sugg.Kind == KindExplanation {
			continue
		}

		answer, err := a.act(ctx, req, sugg)
		if err != nil {
			a.logger.Warn("suggestion execution failed", map[string]interface{}{
				"backend": b.Name(),
				"kind":    string(sugg.Kind),
				"error":   err.Error(),
			})
			continue
		}
		if answer != nil {
			answer.Backend = b.Name()
			return answer
		}
	}
	return nil
}

func (a *Adapter) act(ctx context.Context, req models.QueryRequest, sugg *Suggestion) (*Answer, error) {
	switch sugg.Kind {
	case KindQuery:
		if !sugg.MustExecute {
			return &Answer{HumanText: sugg.Explanation}, nil
		}
		res, err := a.src.ExecuteQuery(ctx, sugg.Query)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			return nil, source.ErrQueryFailed
		}
		return &Answer{
			Data:      res.Rows,
			HumanText: a.formatRows(res.Rows),
		}, nil

	case KindSearchTerm:
		term := strings.TrimSpace(sugg.SearchTerm)
		if term == "" {
			return nil, nil
		}
		if a.search == nil {
			return &Answer{SearchTerm: term}, nil
		}
		records, err := a.search.SearchLedgers(ctx, req.TenantID, term, a.maxRows)
		if err != nil {
			// index down: hand the term to the category chain instead
			return &Answer{SearchTerm: term}, nil
		}
		if len(records) == 0 {
			return nil, nil
		}
		var b strings.Builder
		for i, r := range records {
			fmt.Fprintf(&b, "%d. %s: %.2f\n", i+1, r.Name, r.ClosingBalance)
		}
		return &Answer{Data: records, HumanText: strings.TrimRight(b.String(), "\n")}, nil

	case KindAnalysis:
		if strings.TrimSpace(sugg.Explanation) == "" {
			return nil, nil
		}
		return &Answer{HumanText: sugg.Explanation}, nil
	}
	return nil, nil
}

// formatRows renders up to maxRows rows with stable key order.
func (a *Adapter) formatRows(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return "No data found.\nKoi data nahi mila."
	}
	shown := rows
	if len(shown) > a.maxRows {
		shown = shown[:a.maxRows]
	}

	var b strings.Builder
	for i, row := range shown {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, row[k]))
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(parts, ", "))
	}
	if len(rows) > len(shown) {
		fmt.Fprintf(&b, "…and %d more rows\n", len(rows)-len(shown))
	}
	return strings.TrimRight(b.String(), "\n")
}

package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
)

// LedgerSearcher is the optional fuzzy search index over ledger names.
type LedgerSearcher interface {
	SearchLedgers(ctx context.Context, tenantID, term string, size int) ([]models.LedgerRecord, error)
}

// LedgerHandler resolves a ledger-balance question through progressively more
// permissive lookups: exact name, LIKE, the fuzzy search index, then a full
// scan filtered client-side. A single match answers directly; multiple
// matches return a numbered disambiguation list.
type LedgerHandler struct {
	src        source.AccountingSource
	search     LedgerSearcher
	sync       SyncTimeProvider
	loc        *time.Location
	maxResults int
	logger     logger.Logger
}

func NewLedgerHandler(src source.AccountingSource, search LedgerSearcher, sync SyncTimeProvider, loc *time.Location, maxResults int, log logger.Logger) *LedgerHandler {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &LedgerHandler{src: src, search: search, sync: sync, loc: loc, maxResults: maxResults, logger: log}
}

func (h *LedgerHandler) Name() string { return "ledger-balance" }

var ledgerStopWords = map[string]bool{
	"balance": true, "closing": true, "current": true, "ledger": true,
	"account": true, "of": true, "the": true, "what": true, "is": true,
	"show": true, "me": true, "my": true, "tell": true, "check": true,
	"please": true, "in": true, "for": true, "a": true, "an": true,
	"kitna": true, "kitni": true, "ka": true, "ki": true, "hai": true,
	"batao": true, "dikhao": true, "kya": true, "mera": true, "meri": true,
}

// ExtractLedgerTerm strips the balance-question boilerplate and keeps what is
// left as the candidate account name.
func ExtractLedgerTerm(query string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, "?.,!\"'")
		if w == "" || ledgerStopWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func (h *LedgerHandler) Handle(ctx context.Context, req models.QueryRequest) (*Result, error) {
	term := ExtractLedgerTerm(req.Text)
	if term == "" {
		return nil, nil
	}

	records, err := h.lookup(ctx, req.TenantID, term)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Result{
			Success: true,
			HumanText: fmt.Sprintf("No ledger matching %q was found.\n%q naam ka koi ledger nahi mila.", term, term) +
				syncStamp(ctx, h.sync, req.TenantID, h.loc),
			Suggestions: []string{"list all ledgers", "cash balance"},
		}, nil
	}

	if len(records) == 1 {
		return &Result{
			Success:   true,
			Data:      records,
			HumanText: LedgerLine(records[0]) + syncStamp(ctx, h.sync, req.TenantID, h.loc),
		}, nil
	}

	if len(records) > h.maxResults {
		records = records[:h.maxResults]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching ledgers:\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "%d. %s\n", i+1, LedgerLine(r))
	}
	b.WriteString("Reply with a number to pick one.\nNumber bhej kar chunein.")
	return &Result{
		Success:   true,
		Data:      records,
		HumanText: b.String() + syncStamp(ctx, h.sync, req.TenantID, h.loc),
	}, nil
}

// lookup walks the tiers and stops at the first one that yields rows.
func (h *LedgerHandler) lookup(ctx context.Context, tenantID, term string) ([]models.LedgerRecord, error) {
	exact := fmt.Sprintf("SELECT name, parent, closing_balance FROM ledgers WHERE LOWER(name) = '%s'", escapeTerm(term))
	if recs, err := h.queryLedgers(ctx, exact); err == nil && len(recs) > 0 {
		return recs, nil
	}

	like := fmt.Sprintf("SELECT name, parent, closing_balance FROM ledgers WHERE LOWER(name) LIKE '%%%s%%'", escapeTerm(term))
	if recs, err := h.queryLedgers(ctx, like); err == nil && len(recs) > 0 {
		return recs, nil
	}

	if h.search != nil {
		recs, err := h.search.SearchLedgers(ctx, tenantID, term, h.maxResults)
		if err != nil {
			h.logger.Warn("ledger search index unavailable", map[string]interface{}{"error": err.Error()})
		} else if len(recs) > 0 {
			return recs, nil
		}
	}

	recs, err := h.queryLedgers(ctx, "SELECT name, parent, closing_balance FROM ledgers")
	if err != nil {
		return nil, err
	}
	var filtered []models.LedgerRecord
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Name), term) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (h *LedgerHandler) queryLedgers(ctx context.Context, queryText string) ([]models.LedgerRecord, error) {
	res, err := h.src.ExecuteQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, source.ErrQueryFailed
	}
	records := make([]models.LedgerRecord, 0, len(res.Rows))
	for _, row := range res.Rows {
		name := rowString(row, "name", "ledger_name")
		if name == "" {
			continue
		}
		records = append(records, models.LedgerRecord{
			Name:           name,
			ParentGroup:    rowString(row, "parent", "parent_group", "group"),
			ClosingBalance: rowAmount(row, "closing_balance", "balance"),
		})
	}
	return records, nil
}

func escapeTerm(term string) string {
	return strings.ReplaceAll(term, "'", "''")
}

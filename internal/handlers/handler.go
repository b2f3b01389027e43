// Package handlers implements the per-category resolution chains. Each
// category owns an ordered list of handlers; the first one to produce a
// result wins and gets tagged with the category's display name.
package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ledger-assistant/internal/models"
	"ledger-assistant/internal/parse"
)

// Result is the tagged outcome of one handler attempt.
type Result struct {
	Success     bool
	Category    models.Category
	Data        interface{}
	HumanText   string
	Suggestions []string
}

// Handler is one strategy inside a category chain. Returning (nil, nil) means
// "not applicable, try the next one"; an error means the attempt failed.
type Handler interface {
	Name() string
	Handle(ctx context.Context, req models.QueryRequest) (*Result, error)
}

// SyncTimeProvider reports when the tenant's data was last replicated.
// Responses carry the stamp so users can judge freshness.
type SyncTimeProvider interface {
	LastSyncedAt(ctx context.Context, tenantID string) (time.Time, error)
}

func syncStamp(ctx context.Context, p SyncTimeProvider, tenantID string, loc *time.Location) string {
	if p == nil {
		return ""
	}
	t, err := p.LastSyncedAt(ctx, tenantID)
	if err != nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return "\n\nLast synced at " + t.In(loc).Format("15:04 MST")
}

// FormatMoney renders a signed balance with the Dr/Cr convention users expect.
func FormatMoney(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("₹%.2f Cr", math.Abs(amount))
	}
	return fmt.Sprintf("₹%.2f Dr", amount)
}

// LedgerLine renders one ledger record; shared with the continuation path so
// a picked candidate reads the same as a direct answer.
func LedgerLine(rec models.LedgerRecord) string {
	line := fmt.Sprintf("%s: %s", rec.Name, FormatMoney(rec.ClosingBalance))
	if rec.ParentGroup != "" {
		line += fmt.Sprintf(" (%s)", rec.ParentGroup)
	}
	return line
}

func rowString(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func rowAmount(row map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return parse.Amount(v)
		}
	}
	return 0
}

func containsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

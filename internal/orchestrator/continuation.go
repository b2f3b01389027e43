package orchestrator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cerrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/handlers"
	"ledger-assistant/internal/models"
)

// Continuations are a closed pattern set: a bare integer 1-10, an ordinal
// word, or a handful of "go on" words. Anything else is a fresh query.
var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	"pehla": 1, "doosra": 2, "teesra": 3,
}

var repeatWords = map[string]bool{
	"more": true, "details": true, "yes": true, "ok": true,
	"continue": true, "haan": true,
}

// parseContinuation returns the 1-based selection, or 0 for a repeat word.
func parseContinuation(text string) (int, bool) {
	t := strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(text), "?.!")))
	if n, err := strconv.Atoi(t); err == nil {
		if n >= 1 && n <= 10 {
			return n, true
		}
		return 0, false
	}
	if n, ok := ordinalWords[t]; ok {
		return n, true
	}
	if repeatWords[t] {
		return 0, true
	}
	return 0, false
}

// disambiguation-eligible categories
func eligibleCategory(cat models.Category) bool {
	return cat == models.CategoryLedger || cat == models.CategoryCached
}

// resolveContinuation resolves a selection against the previous result set.
// Returns nil when the context is not continuation-eligible, in which case
// the text goes through the normal pipeline instead.
func (o *Orchestrator) resolveContinuation(conv *models.ConversationContext, n int) *models.QueryResponse {
	if len(conv.LastResultSet) <= 1 || !eligibleCategory(conv.LastCategory) {
		return nil
	}

	if n == 0 {
		// repeat word: show the previous answer again, keeping the list live
		return &models.QueryResponse{
			Success:   true,
			Category:  models.CategoryCached,
			Data:      conv.LastResultSet,
			HumanText: conv.LastResponseText,
		}
	}

	if n > len(conv.LastResultSet) {
		stdErr := cerrors.NewInvalidSelectionError(n, len(conv.LastResultSet))
		o.logger.Warn("continuation selection out of range", map[string]interface{}{
			"selection":  n,
			"candidates": len(conv.LastResultSet),
		})
		return &models.QueryResponse{
			Success:  false,
			Category: models.CategoryError,
			Data:     stdErr,
			HumanText: fmt.Sprintf("Invalid selection: please pick a number between 1 and %d.\n1 se %d ke beech ka number chunein.",
				len(conv.LastResultSet), len(conv.LastResultSet)),
		}
	}

	item := conv.LastResultSet[n-1]
	return &models.QueryResponse{
		Success:   true,
		Category:  conv.LastCategory,
		Data:      item,
		HumanText: formatSelection(item),
	}
}

func formatSelection(item interface{}) string {
	switch v := item.(type) {
	case models.LedgerRecord:
		return handlers.LedgerLine(v)
	case *models.LedgerRecord:
		return handlers.LedgerLine(*v)
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, v[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package intent maps a raw query to one response category. A fuzzy keyword
// scorer runs first; short idiomatic queries that score too low fall back to an
// ordered exact-substring matcher.
package intent

import (
	"strings"

	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
)

// Definition binds a category to its keyword vocabulary. Loaded once, immutable
// for the process lifetime.
type Definition struct {
	Category models.Category
	Keywords []string
}

// scoreThreshold is the minimum fuzzy score for a category to win outright.
const scoreThreshold = 0.3

var definitions = []Definition{
	{
		Category: models.CategoryCompany,
		Keywords: []string{
			"company", "company name", "company address", "company details",
			"gstin", "gst number", "firm", "profile", "mailing name",
			"company ka naam", "company ka pata",
		},
	},
	{
		Category: models.CategoryLedger,
		Keywords: []string{
			"balance", "ledger", "account", "cash", "bank", "closing balance",
			"outstanding", "receivable", "payable", "khata", "baki",
			"lena", "dena", "kitna balance",
		},
	},
	{
		Category: models.CategoryAnalytical,
		Keywords: []string{
			"sales", "purchase", "profit", "loss", "turnover", "compare",
			"trend", "analysis", "total", "bikri", "kharid", "munafa",
			"kitna becha", "kitna kharida",
		},
	},
	{
		Category: models.CategoryInventory,
		Keywords: []string{
			"stock", "inventory", "item", "items", "quantity", "godown",
			"maal", "saman", "stock kitna",
		},
	},
	{
		Category: models.CategoryReminders,
		Keywords: []string{
			"reminder", "remind", "due", "due date", "payment reminder",
			"yaad dilana", "bhejna reminder",
		},
	},
}

type Classifier struct {
	defs   []Definition
	logger logger.Logger
}

func NewClassifier(log logger.Logger) *Classifier {
	return &Classifier{
		defs:   definitions,
		logger: log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
}

// Classify returns the category for a raw query. The fuzzy tier wins when its
// best score clears the threshold; otherwise the exact tier decides, defaulting
// to general.
func (c *Classifier) Classify(query string) models.Category {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.CategoryGeneral
	}

	best, bestScore := c.fuzzyClassify(q)
	if bestScore > scoreThreshold {
		c.logger.Debug("fuzzy tier matched", map[string]interface{}{
			"category": string(best),
			"score":    bestScore,
		})
		return best
	}

	return c.exactClassify(q)
}

// fuzzyClassify scores every category: exact-phrase hits weigh 1.0, partial
// word-overlap hits 0.5, normalized by keyword-list size.
func (c *Classifier) fuzzyClassify(q string) (models.Category, float64) {
	queryWords := wordSet(q)

	best := models.CategoryGeneral
	bestScore := 0.0

	for _, def := range c.defs {
		score := 0.0
		for _, kw := range def.Keywords {
			if strings.Contains(q, kw) {
				score += 1.0
				continue
			}
			for _, w := range strings.Fields(kw) {
				if queryWords[w] {
					score += 0.5
					break
				}
			}
		}
		score /= float64(len(def.Keywords))
		score = c.applyOverrides(def.Category, q, score)

		if score > bestScore {
			best = def.Category
			bestScore = score
		}
	}

	return best, bestScore
}

// applyOverrides zeroes scores for known ambiguous overlaps. Cash/balance
// phrasing mentions quantities but is never an inventory question.
func (c *Classifier) applyOverrides(cat models.Category, q string, score float64) float64 {
	if cat == models.CategoryInventory {
		if strings.Contains(q, "cash") || strings.Contains(q, "balance") || strings.Contains(q, "bank") {
			return 0
		}
	}
	if cat == models.CategoryLedger {
		// pure sales/purchase totals belong to the analytical path
		if (strings.Contains(q, "sales") || strings.Contains(q, "purchase")) &&
			!strings.Contains(q, "balance") && !strings.Contains(q, "ledger") &&
			!strings.Contains(q, "account") {
			return score * 0.5
		}
	}
	return score
}

// exactClassify tests categories in a fixed priority sequence and returns the
// first whose trigger phrase is present. Documents route to general because
// rendering lives outside this core.
func (c *Classifier) exactClassify(q string) models.Category {
	type tier struct {
		category models.Category
		triggers []string
	}

	tiers := []tier{
		{models.CategoryGeneral, []string{"what can you do", "help", "commands", "hi", "hello", "namaste"}},
		{models.CategoryInventory, []string{"stock", "inventory", "item", "maal", "saman"}},
		{models.CategoryReminders, []string{"remind", "reminder", "yaad"}},
		{models.CategoryCompany, []string{"company", "gstin", "address", "firm"}},
		{models.CategoryAnalytical, []string{"sales", "purchase", "profit", "loss", "bikri", "kharid", "becha", "kharida", "analysis", "compare"}},
		{models.CategoryGeneral, []string{"pdf", "report", "statement", "download", "invoice copy"}},
		{models.CategoryLedger, []string{"balance", "ledger", "account", "cash", "bank", "outstanding", "khata", "baki", "lena", "dena"}},
	}

	for _, t := range tiers {
		for _, trigger := range t.triggers {
			if matchTrigger(q, trigger) {
				return t.category
			}
		}
	}

	return models.CategoryGeneral
}

// matchTrigger does a substring match, except very short triggers which must
// match on word boundaries so "hi" does not fire inside "this".
func matchTrigger(q, trigger string) bool {
	if len(trigger) > 4 {
		return strings.Contains(q, trigger)
	}
	for _, w := range strings.Fields(q) {
		if strings.Trim(w, ".,!?") == trigger {
			return true
		}
	}
	return false
}

func wordSet(q string) map[string]bool {
	words := strings.Fields(q)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.Trim(w, ".,!?")] = true
	}
	return set
}

package understand

import (
	"context"
	"regexp"
	"strings"
)

// rule maps one query shape to a suggestion template.
type rule struct {
	pattern *regexp.Regexp
	build   func(matches []string) *Suggestion
}

// RuleBackend is the deterministic last resort: fixed regex to query
// templates with a confidence score, no external service needed.
type RuleBackend struct {
	rules []rule
}

func NewRuleBackend() *RuleBackend {
	return &RuleBackend{rules: []rule{
		{
			pattern: regexp.MustCompile(`(?i)^(?:list|show)(?:\s+me)?(?:\s+all)?\s+(?:the\s+)?ledgers?$`),
			build: func([]string) *Suggestion {
				return &Suggestion{
					Kind:        KindQuery,
					Query:       "SELECT name, parent, closing_balance FROM ledgers",
					MustExecute: true,
					Confidence:  0.9,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)^(?:list|show)(?:\s+me)?(?:\s+all)?\s+(?:the\s+)?(?:stock\s+items?|inventory)$`),
			build: func([]string) *Suggestion {
				return &Suggestion{
					Kind:        KindQuery,
					Query:       "SELECT name, parent, unit, closing_qty, closing_value FROM stock_items",
					MustExecute: true,
					Confidence:  0.9,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)how many ledgers`),
			build: func([]string) *Suggestion {
				return &Suggestion{
					Kind:        KindQuery,
					Query:       "SELECT COUNT(*) AS count FROM ledgers",
					MustExecute: true,
					Confidence:  0.85,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)balance\s+of\s+(.+)$`),
			build: func(m []string) *Suggestion {
				return &Suggestion{
					Kind:       KindSearchTerm,
					SearchTerm: strings.TrimSpace(m[1]),
					Confidence: 0.8,
				}
			},
		},
		{
			pattern: regexp.MustCompile(`(?i)^(.+?)\s+ka\s+balance`),
			build: func(m []string) *Suggestion {
				return &Suggestion{
					Kind:       KindSearchTerm,
					SearchTerm: strings.TrimSpace(m[1]),
					Confidence: 0.8,
				}
			},
		},
	}}
}

func (r *RuleBackend) Name() string { return "rule-fallback" }

func (r *RuleBackend) Attempt(_ context.Context, query string, _ map[string]interface{}) (*Suggestion, error) {
	q := strings.TrimSpace(query)
	for _, rl := range r.rules {
		if m := rl.pattern.FindStringSubmatch(q); m != nil {
			sugg := rl.build(m)
			sugg.Backend = r.Name()
			return sugg, nil
		}
	}
	return nil, nil
}

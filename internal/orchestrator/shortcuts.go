package orchestrator

import "strings"

// Single-letter shortcuts power users send instead of full questions. They
// are expanded before anything else looks at the text.
var shortcuts = map[string]string{
	"s": "total sales this month",
	"p": "total purchases this month",
	"o": "outstanding receivables",
	"b": "cash balance",
	"i": "inventory summary",
}

func expandShortcut(text string) string {
	t := strings.TrimSpace(text)
	if full, ok := shortcuts[strings.ToLower(t)]; ok {
		return full
	}
	return t
}

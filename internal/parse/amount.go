// Package parse holds the pure text-analysis helpers of the pipeline: currency
// amounts, natural-language date ranges, and superlative detection.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Amount normalizes a heterogeneous balance representation into a signed
// number. Values arrive as numbers or as currency-formatted strings such as
// "₹12,63,844.06 Dr". A trailing Dr marker forces the sign positive, Cr forces
// it negative, absence of both keeps the parsed sign. Placeholder and
// unparseable input yields 0. The function is total: it never returns an error.
func Amount(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return amountFromString(v)
	default:
		return 0
	}
}

func amountFromString(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "—", "–":
		return 0
	}

	sign := 0 // 0 = keep parsed sign, 1 = debit, -1 = credit
	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "DR") {
		sign = 1
		s = s[:len(s)-2]
	} else if strings.HasSuffix(upper, "CR") {
		sign = -1
		s = s[:len(s)-2]
	}

	match := numberRe.FindString(s)
	if match == "" {
		return 0
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0
	}

	switch sign {
	case 1:
		if n < 0 {
			n = -n
		}
	case -1:
		if n > 0 {
			n = -n
		}
	}
	return n
}

package parse

import "strings"

// Direction of a superlative query.
type Direction string

const (
	DirectionNone    Direction = ""
	DirectionHighest Direction = "highest"
	DirectionLowest  Direction = "lowest"
)

// Superlative holds the detector verdict.
type Superlative struct {
	IsSuperlative bool
	Direction     Direction
}

var highestWords = []string{
	"highest", "biggest", "largest", "maximum", "max", "top",
	"sabse zyada", "sabse jyada", "sabse bada", "sabse badi", "sabse uncha",
}

var lowestWords = []string{
	"lowest", "smallest", "minimum", "min", "least",
	"sabse kam", "sabse chota", "sabse choti", "sabse neecha",
}

// DetectSuperlative recognizes an explicit vocabulary of highest/lowest
// synonyms in English and romanized Hindi. When a query is superlative the
// aggregator returns the single extreme record instead of totals.
func DetectSuperlative(query string) Superlative {
	q := strings.ToLower(query)

	for _, w := range highestWords {
		if containsWord(q, w) {
			return Superlative{IsSuperlative: true, Direction: DirectionHighest}
		}
	}
	for _, w := range lowestWords {
		if containsWord(q, w) {
			return Superlative{IsSuperlative: true, Direction: DirectionLowest}
		}
	}
	return Superlative{}
}

// containsWord matches w on word boundaries so that "max" does not fire
// inside "climax".
func containsWord(q, w string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], w)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(q[i-1])
		afterIdx := i + len(w)
		after := afterIdx >= len(q) || !isWordChar(q[afterIdx])
		if before && after {
			return true
		}
		idx = i + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

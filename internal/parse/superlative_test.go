package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSuperlative(t *testing.T) {
	tests := []struct {
		query     string
		want      bool
		direction Direction
	}{
		{"highest sale this year", true, DirectionHighest},
		{"which is my biggest purchase", true, DirectionHighest},
		{"sabse zyada bikri kiski hai", true, DirectionHighest},
		{"lowest sale in july", true, DirectionLowest},
		{"sabse kam kharid", true, DirectionLowest},
		{"minimum purchase amount", true, DirectionLowest},
		{"total sales this month", false, DirectionNone},
		{"climax of the story", false, DirectionNone},
		{"mint tea ledger", false, DirectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := DetectSuperlative(tt.query)
			assert.Equal(t, tt.want, got.IsSuperlative)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}

package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", "Tea", "Tea", true},
		{"trimmed", "  Pasta \t", "Pasta", true},
		{"blank", "   ", "", false},
		{"empty", "", "", false},
		// "e" followed by a combining acute accent composes to a single rune.
		{"nfc", "Cafe\u0301", "Caf\u00e9", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "Timer 4", OrDefault(" ", "Timer", 4))
	assert.Equal(t, "Eggs", OrDefault("Eggs", "Timer", 4))
	assert.Equal(t, "Stopwatch 1", Default("Stopwatch", 1))
}

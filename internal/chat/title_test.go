package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "New Chat"},
		{"whitespace", "   \n\t ", "New Chat"},
		{"short", "Hello there", "Hello there"},
		{"eight words kept", "one two three four five six seven eight", "one two three four five six seven eight"},
		{"ninth word dropped", "one two three four five six seven eight nine", "one two three four five six seven eight"},
		{"trip planning", "Plan my trip to Tokyo for two weeks", "Plan my trip to Tokyo for two weeks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateTitle(tt.in))
		})
	}
}

func TestGenerateTitleBounds(t *testing.T) {
	long := strings.Repeat("antidisestablishmentarianism ", 8)
	title := GenerateTitle(long)

	assert.LessOrEqual(t, len(title), 60)
	assert.LessOrEqual(t, len(strings.Fields(title)), 8)
	assert.True(t, strings.HasSuffix(title, "..."))
}

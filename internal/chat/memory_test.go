package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFactsDropsUnknownKeys(t *testing.T) {
	got := FilterFacts(map[string]string{
		"name":          "Ada",
		"Location":      "London",
		"social_number": "123-45-6789",
		"goals":         "",
	})

	assert.Equal(t, map[string]string{
		"name":     "Ada",
		"location": "London",
	}, got)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"name":"Ada"}`, stripCodeFence("```json\n{\"name\":\"Ada\"}\n```"))
	assert.Equal(t, `{"name":"Ada"}`, stripCodeFence("```\n{\"name\":\"Ada\"}\n```"))
	assert.Equal(t, `{}`, stripCodeFence("{}"))
}

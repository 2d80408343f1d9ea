package chat

import "strings"

const (
	titleMaxWords = 8
	titleMaxChars = 60
)

// GenerateTitle derives a chat title from the first user message: the first
// 8 words, capped at 60 characters. An empty input yields "New Chat".
func GenerateTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "New Chat"
	}
	words := strings.Fields(text)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	title := strings.Join(words, " ")
	if len(title) > titleMaxChars {
		title = title[:titleMaxChars-3] + "..."
	}
	return title
}

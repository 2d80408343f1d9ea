package chat

import (
	"sort"
	"strings"

	"github.com/evrenbal/voicechat/internal/llm"
	"github.com/evrenbal/voicechat/internal/models"
)

// BuildContext produces the full prompt sequence for a completion call:
// exactly one system entry (persona plus any stored user facts), followed by
// the recent window unmodified.
func BuildContext(persona string, facts map[string]string, window []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(window)+1)
	out = append(out, llm.Message{
		Role:    models.RoleSystem,
		Content: renderSystemPrompt(persona, facts),
	})
	for _, m := range window {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func renderSystemPrompt(persona string, facts map[string]string) string {
	if len(facts) == 0 {
		return persona
	}

	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nKnown facts about the user:\n")
	for _, k := range keys {
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(facts[k])
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

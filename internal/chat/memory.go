package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/evrenbal/voicechat/internal/llm"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/google/uuid"
)

// AllowedFactKeys bounds what fact extraction may store. Anything else the
// model invents is dropped before persisting.
var AllowedFactKeys = map[string]bool{
	"name":        true,
	"location":    true,
	"occupation":  true,
	"interests":   true,
	"preferences": true,
	"goals":       true,
	"tone":        true,
}

// FilterFacts keeps only allowed keys with non-empty values.
func FilterFacts(raw map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range raw {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if AllowedFactKeys[k] && v != "" {
			out[k] = v
		}
	}
	return out
}

const extractionPrompt = `Extract personal facts about the user from their message.
Respond with a single JSON object whose keys are a subset of:
name, location, occupation, interests, preferences, goals, tone.
Use short string values. Respond with {} if the message reveals nothing.`

const extractionTimeout = 30 * time.Second

// extractFacts asks the completion API for personal facts in the user's turn
// and merges the allowed ones into memory. Best effort: every failure is
// logged and swallowed, the chat response never depends on it.
func (o *Orchestrator) extractFacts(userID uuid.UUID, userText string) {
	ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: models.RoleSystem, Content: extractionPrompt},
		{Role: models.RoleUser, Content: userText},
	}

	raw, err := o.gateway.Complete(ctx, o.cfg.DefaultModel, messages, 0)
	if err != nil {
		slog.Warn("Fact extraction call failed", "user", userID, "error", err)
		return
	}

	facts := map[string]string{}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &facts); err != nil {
		slog.Warn("Fact extraction returned non-JSON", "user", userID)
		return
	}

	kept := FilterFacts(facts)
	if len(kept) == 0 {
		return
	}
	if err := o.memory.Merge(ctx, userID, kept); err != nil {
		slog.Warn("Fact merge failed", "user", userID, "error", err)
	}
}

// stripCodeFence unwraps a ```json ... ``` block if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

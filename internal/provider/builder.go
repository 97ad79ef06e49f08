package provider

import (
	"strings"

	"github.com/phamiq/ai-gateway/pkg/models"
)

// The upstream accepts only one aggregated "user" content block per call, so
// the whole conversation is flattened into a single turn. The ordering is
// load-bearing: system prompt first, prior turns next, new user text last.

// BuildTurn flattens a system prompt, conversation history, and new user
// text into the single upstream turn. Pure function of its inputs.
func BuildTurn(system string, history []models.Message, userText string) string {
	var parts []string

	if system != "" {
		parts = append(parts, "System instruction: "+system)
	}

	for _, msg := range history {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case models.RoleAssistant:
			parts = append(parts, "Previous response: "+text)
		case models.RoleSystem:
			parts = append(parts, "System instruction: "+text)
		default:
			parts = append(parts, text)
		}
	}

	if userText != "" {
		parts = append(parts, userText)
	}

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// ── Wire payload ────────────────────────────────────────────

type wireContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type wireMessage struct {
	User []wireContent `json:"user"`
}

// wireRequest is the native AlleAI chat completions payload.
type wireRequest struct {
	Models           []string      `json:"models"`
	Messages         []wireMessage `json:"messages"`
	WebSearch        bool          `json:"web_search"`
	Combination      bool          `json:"combination"`
	Summary          bool          `json:"summary"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             int           `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	Stream           bool          `json:"stream"`
}

func newWireRequest(turn string, modelIDs []string, opts Options) wireRequest {
	return wireRequest{
		Models: modelIDs,
		Messages: []wireMessage{
			{User: []wireContent{{Type: "text", Text: turn}}},
		},
		Temperature:      opts.Temperature,
		MaxTokens:        opts.MaxTokens,
		TopP:             1,
		FrequencyPenalty: 0.2,
		PresencePenalty:  0.3,
	}
}

package provider

import (
	"encoding/json"
	"sort"
	"strings"
)

// Mode selects which strings qualify during extraction. Chat accepts any
// non-empty text; image generation only accepts http(s) URLs from the
// nested provider shape.
type Mode int

const (
	ModeChat Mode = iota
	ModeImage
)

// Extract locates the answer text inside a provider payload of unknown
// shape. The probe order is fixed:
//
//  1. nested "responses.responses" model→text map
//  2. "choices[0].message.content"
//  3. direct fields: "message", "content", "response", "text"
//  4. nested "data.text"
//
// The nested map is walked in sorted model-identifier order so the same
// payload always yields the same answer. Returns ExtractionError when no
// probe matches or the matched value is empty.
func Extract(raw []byte, mode Mode) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &ExtractionError{Reason: "response is not a JSON object"}
	}
	return extract(payload, mode)
}

func extract(payload map[string]any, mode Mode) (string, error) {
	if text, ok := fromNested(payload, mode); ok {
		return text, nil
	}
	if mode == ModeChat {
		if text, ok := fromChoices(payload); ok {
			return text, nil
		}
		for _, field := range []string{"message", "content", "response", "text"} {
			if text, ok := nonEmptyString(payload[field]); ok {
				return text, nil
			}
		}
		if data, ok := payload["data"].(map[string]any); ok {
			if text, ok := nonEmptyString(data["text"]); ok {
				return text, nil
			}
		}
	}
	return "", &ExtractionError{Reason: "no response content"}
}

// fromNested probes the provider-specific responses.responses shape: a map
// from model identifier to answer text.
func fromNested(payload map[string]any, mode Mode) (string, bool) {
	outer, ok := payload["responses"].(map[string]any)
	if !ok {
		return "", false
	}
	inner, ok := outer["responses"].(map[string]any)
	if !ok {
		return "", false
	}

	keys := make([]string, 0, len(inner))
	for k := range inner {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text, ok := nonEmptyString(inner[k])
		if !ok {
			continue
		}
		if mode == ModeImage && !strings.HasPrefix(text, "http") {
			continue
		}
		return text, true
	}
	return "", false
}

// fromChoices probes the OpenAI-style choices array shape.
func fromChoices(payload map[string]any) (string, bool) {
	choices, ok := payload["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := first["message"].(map[string]any)
	if !ok {
		return "", false
	}
	return nonEmptyString(message["content"])
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

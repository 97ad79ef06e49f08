package provider

import (
	"errors"
	"testing"
)

func TestExtract_NestedShape(t *testing.T) {
	raw := []byte(`{"responses": {"responses": {"gpt-4o": "Hello from the model"}}}`)

	text, err := Extract(raw, ModeChat)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Hello from the model" {
		t.Errorf("Extract() = %q, want %q", text, "Hello from the model")
	}
}

func TestExtract_NestedTakesPrecedenceOverContent(t *testing.T) {
	raw := []byte(`{
		"responses": {"responses": {"gpt-4o": "nested answer"}},
		"content": "direct answer"
	}`)

	text, err := Extract(raw, ModeChat)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "nested answer" {
		t.Errorf("Extract() = %q, want nested shape to win precedence", text)
	}
}

func TestExtract_NestedDeterministicOrder(t *testing.T) {
	// Multiple model keys: the lexicographically first non-empty value must
	// always win, regardless of map iteration order.
	raw := []byte(`{"responses": {"responses": {"yi-large": "from yi", "gpt-4o": "from gpt"}}}`)

	for i := 0; i < 50; i++ {
		text, err := Extract(raw, ModeChat)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if text != "from gpt" {
			t.Fatalf("Extract() = %q on iteration %d, want %q", text, i, "from gpt")
		}
	}
}

func TestExtract_ChoicesShape(t *testing.T) {
	raw := []byte(`{"choices": [{"message": {"content": "choice answer"}}]}`)

	text, err := Extract(raw, ModeChat)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "choice answer" {
		t.Errorf("Extract() = %q, want %q", text, "choice answer")
	}
}

func TestExtract_DirectFieldOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"message", `{"message": "m"}`, "m"},
		{"content", `{"content": "c"}`, "c"},
		{"response", `{"response": "r"}`, "r"},
		{"text", `{"text": "t"}`, "t"},
		{"data.text", `{"data": {"text": "d"}}`, "d"},
		{"message beats content", `{"content": "c", "message": "m"}`, "m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract([]byte(tt.raw), ModeChat)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if text != tt.want {
				t.Errorf("Extract() = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestExtract_NoContent(t *testing.T) {
	for _, raw := range []string{`{}`, `{"message": ""}`, `{"choices": []}`, `not json`} {
		_, err := Extract([]byte(raw), ModeChat)
		var ee *ExtractionError
		if !errors.As(err, &ee) {
			t.Errorf("Extract(%q) error = %v, want ExtractionError", raw, err)
		}
	}
}

func TestExtract_ImageModeRequiresURL(t *testing.T) {
	raw := []byte(`{"responses": {"responses": {"a-model": "just words", "b-model": "https://img.example/x.png"}}}`)

	text, err := Extract(raw, ModeImage)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "https://img.example/x.png" {
		t.Errorf("Extract() = %q, want the http value only", text)
	}

	// A chat-style payload has no URL to offer in image mode.
	if _, err := Extract([]byte(`{"responses": {"responses": {"m": "plain"}}, "content": "x"}`), ModeImage); err == nil {
		t.Error("Extract() in image mode accepted non-URL content")
	}
}

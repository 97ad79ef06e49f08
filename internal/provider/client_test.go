package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/pkg/models"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	return NewClient("alle-test-key", url, []string{"gpt-4o", "yi-large"}, fallback.New())
}

func TestBuildTurn_Ordering(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "My maize has spots"},
		{Role: models.RoleAssistant, Content: "Check for leaf blight"},
	}

	turn := BuildTurn("Be an agronomist.", history, "What should I spray?")

	wantOrder := []string{
		"System instruction: Be an agronomist.",
		"My maize has spots",
		"Previous response: Check for leaf blight",
		"What should I spray?",
	}
	last := -1
	for _, part := range wantOrder {
		idx := strings.Index(turn, part)
		if idx < 0 {
			t.Fatalf("BuildTurn() missing %q in %q", part, turn)
		}
		if idx <= last {
			t.Errorf("BuildTurn() part %q out of order", part)
		}
		last = idx
	}

	if turn != strings.TrimSpace(turn) {
		t.Error("BuildTurn() output not trimmed")
	}
}

func TestBuildTurn_SkipsEmptyTurns(t *testing.T) {
	turn := BuildTurn("", []models.Message{{Role: models.RoleUser, Content: "  "}}, "hello")
	if turn != "hello" {
		t.Errorf("BuildTurn() = %q, want %q", turn, "hello")
	}
}

func TestComplete_Success(t *testing.T) {
	var gotPayload wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer alle-test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		json.NewEncoder(w).Encode(map[string]any{
			"responses": map[string]any{"responses": map[string]any{"gpt-4o": "Spray neem oil weekly."}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.Complete(context.Background(), "sys", nil, "what now?", Options{Temperature: 0.7, MaxTokens: 1000})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "Spray neem oil weekly." {
		t.Errorf("Complete() = %q", text)
	}

	if len(gotPayload.Messages) != 1 {
		t.Fatalf("payload has %d messages, want single aggregated turn", len(gotPayload.Messages))
	}
	if gotPayload.TopP != 1 || gotPayload.FrequencyPenalty != 0.2 || gotPayload.PresencePenalty != 0.3 {
		t.Errorf("payload sampling defaults wrong: %+v", gotPayload)
	}
	if gotPayload.Stream || gotPayload.WebSearch || gotPayload.Combination || gotPayload.Summary {
		t.Errorf("payload feature flags must be false: %+v", gotPayload)
	}
}

func TestComplete_BillingBlockedUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.Complete(context.Background(), "", nil, "how do I treat this pest?", Options{})
	if err != nil {
		t.Fatalf("Complete() on 402 error = %v, want soft fallback", err)
	}
	if !strings.Contains(text, "Pest management") {
		t.Errorf("Complete() on 402 = %q, want keyword-routed fallback", text)
	}
}

func TestComplete_ServerErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "upstream exploded"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "", nil, "hello", Options{})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Complete() error = %v, want TransportError", err)
	}
	if te.Status != http.StatusInternalServerError || te.Message != "upstream exploded" {
		t.Errorf("TransportError = %+v", te)
	}
}

func TestComplete_NetworkFailureUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(t, srv.URL)
	text, err := c.Complete(context.Background(), "", nil, "my soil seems poor", Options{})
	if err != nil {
		t.Fatalf("Complete() on network failure error = %v, want soft fallback", err)
	}
	if !strings.Contains(text, "Soil health") {
		t.Errorf("Complete() = %q, want soil fallback guidance", text)
	}
}

func TestComplete_NotConfigured(t *testing.T) {
	c := NewClient("", "http://unused", []string{"gpt-4o"}, fallback.New())
	_, err := c.Complete(context.Background(), "", nil, "hi", Options{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Complete() error = %v, want ErrNotConfigured", err)
	}
}

func TestComplete_ModelOverride(t *testing.T) {
	var gotModels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p wireRequest
		json.NewDecoder(r.Body).Decode(&p)
		gotModels = p.Models
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), "", nil, "hi", Options{Models: []string{"yi-large"}}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(gotModels) != 1 || gotModels[0] != "yi-large" {
		t.Errorf("payload models = %v, want override only", gotModels)
	}
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Connection successful"})
	}))
	defer srv.Close()

	if ok := newTestClient(t, srv.URL).TestConnection(context.Background()); !ok {
		t.Error("TestConnection() = false, want true")
	}

	srv.Close()
	if ok := newTestClient(t, srv.URL).TestConnection(context.Background()); ok {
		t.Error("TestConnection() against dead server = true, want false")
	}

	unconfigured := NewClient("", "http://unused", nil, fallback.New())
	if unconfigured.TestConnection(context.Background()) {
		t.Error("TestConnection() without key = true, want false")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := errorMessage([]byte(`{"error": {"message": "bad key"}}`)); got != "bad key" {
		t.Errorf("errorMessage() = %q", got)
	}
	if got := errorMessage([]byte("plain failure text")); got != "plain failure text" {
		t.Errorf("errorMessage() fallback = %q", got)
	}
}

// Package provider implements the upstream AI transport for the Phamiq
// gateway: the native AlleAI client, the response extractor, and an optional
// OpenAI-compatible chat backend.
//
// The transport distinguishes soft failures (billing block, network-level
// errors), which it converts into fallback output locally, from hard
// failures (unexpected status, unextractable payload), which it surfaces as
// typed errors for the orchestrator to absorb.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/pkg/models"
)

// requestTimeout is the fixed total ceiling per provider call. There is no
// per-call override and no retry: a timeout routes to fallback like any
// other network failure.
const requestTimeout = 30 * time.Second

// Backend completes conversations against an upstream AI service.
// Implementations never surface soft failures; see Complete.
type Backend interface {
	// Complete flattens the conversation, calls the upstream, and returns
	// the extracted answer text. Billing blocks and network failures are
	// answered with fallback text and a nil error; unexpected statuses and
	// unextractable payloads return TransportError / ExtractionError.
	Complete(ctx context.Context, system string, history []models.Message, userText string, opts Options) (string, error)

	// Available reports whether a provider credential is configured.
	Available() bool

	// Models lists the model identifiers this backend uses by default.
	Models() []string

	// TestConnection performs one live round-trip with a fixed probe
	// message and reports whether it produced usable text.
	TestConnection(ctx context.Context) bool
}

// Options are the sampling parameters for a single completion call.
type Options struct {
	Temperature float64
	MaxTokens   int
	// Models overrides the backend's default model set when non-empty.
	Models []string
}

// Client is the native AlleAI transport.
type Client struct {
	apiKey string
	apiURL string
	models []string
	fb     *fallback.Responder
	http   *http.Client
}

// NewClient creates an AlleAI client. An empty apiKey is not an error: the
// client reports unavailable and the gateway runs in fallback-only mode.
func NewClient(apiKey, apiURL string, defaultModels []string, fb *fallback.Responder) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		apiURL: apiURL,
		models: defaultModels,
		fb:     fb,
		http: &http.Client{
			Timeout: requestTimeout,
			// One connection per call; the upstream handles reuse poorly.
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}
}

// Available reports whether a provider credential is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Models returns the default model identifiers.
func (c *Client) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Complete implements Backend for the native AlleAI upstream.
func (c *Client) Complete(ctx context.Context, system string, history []models.Message, userText string, opts Options) (string, error) {
	if !c.Available() {
		return "", ErrNotConfigured
	}

	modelIDs := opts.Models
	if len(modelIDs) == 0 {
		modelIDs = c.models
	}

	turn := BuildTurn(system, history, userText)

	log.Info().
		Strs("models", modelIDs).
		Float64("temperature", opts.Temperature).
		Int("max_tokens", opts.MaxTokens).
		Int("turn_chars", len(turn)).
		Msg("AlleAI request")

	text, err := c.complete(ctx, turn, modelIDs, opts, ModeChat)
	if err != nil {
		if errors.Is(err, ErrBillingBlocked) {
			log.Warn().Msg("AlleAI returned 402, answering from fallback")
			return c.fb.Respond(lastUserText(history, userText)), nil
		}

		var te *TransportError
		var ee *ExtractionError
		if errors.As(err, &te) || errors.As(err, &ee) {
			return "", err
		}

		// Network-level failure (timeout, refused, DNS).
		log.Warn().Err(err).Msg("AlleAI unreachable, answering from fallback")
		return c.fb.Respond(lastUserText(history, userText)), nil
	}

	log.Info().Int("content_chars", len(text)).Msg("AlleAI response")
	return text, nil
}

// complete performs one strict round-trip: no fallback conversion, typed
// errors only. TestConnection uses it directly so probes cannot be masked
// by fallback output.
func (c *Client) complete(ctx context.Context, turn string, modelIDs []string, opts Options, mode Mode) (string, error) {
	body, err := json.Marshal(newWireRequest(turn, modelIDs, opts))
	if err != nil {
		return "", fmt.Errorf("provider: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("provider: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider: request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Msg("AlleAI response status")

	if resp.StatusCode == http.StatusPaymentRequired {
		io.Copy(io.Discard, resp.Body)
		return "", ErrBillingBlocked
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("provider: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	return Extract(raw, mode)
}

// TestConnection sends the fixed probe message through one live round-trip.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Available() {
		return false
	}

	const probe = "Hello, this is a test message. Please respond with 'Connection successful' if you can read this."

	text, err := c.complete(ctx, probe, []string{"gpt-4o"}, Options{Temperature: 0.1, MaxTokens: 50}, ModeChat)
	if err != nil {
		log.Error().Err(err).Msg("AlleAI connection test failed")
		return false
	}
	return text != ""
}

// errorMessage pulls a human-readable message out of an error body, falling
// back to the raw body text.
func errorMessage(raw []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

// lastUserText returns the newest user-role text in the conversation.
func lastUserText(history []models.Message, userText string) string {
	if userText != "" {
		return userText
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser && history[i].Content != "" {
			return history[i].Content
		}
	}
	return ""
}

package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/pkg/models"
)

// OpenAIBackend serves chat through an OpenAI-compatible upstream. It is an
// alternate Backend selected by configuration; structured recommendations
// always go through the native AlleAI client.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	fb     *fallback.Responder
}

// NewOpenAIBackend creates the OpenAI-compatible chat backend. baseURL may
// be empty for the default OpenAI endpoint.
func NewOpenAIBackend(apiKey, baseURL, model string, fb *fallback.Responder) *OpenAIBackend {
	b := &OpenAIBackend{model: model, fb: fb}
	if apiKey == "" {
		return b
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	b.client = openai.NewClientWithConfig(cfg)
	return b
}

func (b *OpenAIBackend) Available() bool {
	return b.client != nil
}

func (b *OpenAIBackend) Models() []string {
	return []string{b.model}
}

// Complete implements Backend. Unlike AlleAI, this upstream accepts the
// conversation as separate role-tagged messages, so no turn aggregation is
// needed.
func (b *OpenAIBackend) Complete(ctx context.Context, system string, history []models.Message, userText string, opts Options) (string, error) {
	if !b.Available() {
		return "", ErrNotConfigured
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userText})

	model := b.model
	if len(opts.Models) > 0 {
		model = opts.Models[0]
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode == 402 {
				log.Warn().Msg("OpenAI backend returned 402, answering from fallback")
				return b.fb.Respond(lastUserText(history, userText)), nil
			}
			return "", &TransportError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		log.Warn().Err(err).Msg("OpenAI backend unreachable, answering from fallback")
		return b.fb.Respond(lastUserText(history, userText)), nil
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ExtractionError{Reason: "no response content"}
	}
	return resp.Choices[0].Message.Content, nil
}

// TestConnection sends a minimal one-token completion to validate the
// credential.
func (b *OpenAIBackend) TestConnection(ctx context.Context) bool {
	if !b.Available() {
		return false
	}
	_, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     b.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Say OK"}},
		MaxTokens: 1,
	})
	if err != nil {
		log.Error().Err(err).Str("model", b.model).Msg("OpenAI connection test failed")
		return false
	}
	return true
}

// Package chat implements the end-to-end "answer this user turn" operation:
// request building, transport, extraction, sanitization, and fallback,
// composed so that a well-formed input never gets an error back.
package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/internal/provider"
	"github.com/phamiq/ai-gateway/internal/sanitize"
	"github.com/phamiq/ai-gateway/pkg/models"
)

// systemPrompt frames every chat conversation. Swapping the order of this
// prompt relative to the user content changes what the model treats as
// instruction, so it always goes first.
const systemPrompt = `You are an expert agricultural AI assistant specializing in crop disease management and agricultural best practices. You provide helpful, conversational advice for farmers and agricultural professionals.

**Your Expertise Areas:**
- Plant disease identification and management
- Soil health and fertilization
- Irrigation and watering practices
- Pest control strategies
- Crop management and rotation
- Organic farming methods
- Climate-smart agriculture

**Response Guidelines:**
1. Provide natural, conversational responses
2. Give practical, actionable advice that farmers can implement
3. Include both organic and conventional solutions when applicable
4. Consider local conditions and climate factors
5. Provide step-by-step instructions for complex procedures
6. Include safety warnings for chemical treatments
7. Suggest monitoring and follow-up actions

**Important:**
- Respond naturally and conversationally, not in structured JSON format
- Use clear, helpful language that's easy to understand
- Be friendly and supportive in your tone
- Focus on practical solutions that farmers can implement immediately`

// Service is the chat orchestrator.
type Service struct {
	backend provider.Backend
	fb      *fallback.Responder
}

// NewService creates a chat service over the given backend.
func NewService(backend provider.Backend, fb *fallback.Responder) *Service {
	return &Service{backend: backend, fb: fb}
}

// Backend exposes the underlying provider backend for status reporting.
func (s *Service) Backend() provider.Backend {
	return s.backend
}

// Chat answers one user turn. Total function: every failure class degrades
// to fallback text, never an error. modelIDs optionally overrides the
// backend's default model set.
func (s *Service) Chat(ctx context.Context, userMessage string, history []models.Message, modelIDs []string) string {
	if !s.backend.Available() {
		log.Warn().Msg("AI provider not available, using fallback response")
		return s.fb.Respond(userMessage)
	}

	raw, err := s.backend.Complete(ctx, systemPrompt, history, userMessage, provider.Options{
		Temperature: 0.7,
		MaxTokens:   1000,
		Models:      modelIDs,
	})
	if err != nil {
		s.logFailure(err)
		return s.fb.Respond(userMessage)
	}

	cleaned := sanitize.Clean(raw)
	if cleaned == "" {
		log.Warn().Msg("Sanitized response empty, using fallback response")
		return s.fb.Respond(userMessage)
	}
	return cleaned
}

// logFailure keeps failure causes diagnosable: expected taxonomy members
// log as warnings, anything unexpected logs as an error before degrading.
func (s *Service) logFailure(err error) {
	var te *provider.TransportError
	var ee *provider.ExtractionError
	switch {
	case errors.As(err, &te):
		log.Warn().Int("status", te.Status).Str("message", te.Message).Msg("Provider transport error, using fallback response")
	case errors.As(err, &ee):
		log.Warn().Err(err).Msg("No usable content in provider response, using fallback response")
	case errors.Is(err, provider.ErrNotConfigured):
		log.Warn().Msg("Provider not configured, using fallback response")
	default:
		log.Error().Err(err).Msg("Unexpected chat pipeline error, using fallback response")
	}
}

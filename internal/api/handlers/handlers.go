// Package handlers implements the HTTP handlers for the Phamiq AI gateway.
// Every AI-facing endpoint is total: provider failures surface as fallback
// content with a 200, never as an error response. Only malformed caller
// input gets a 4xx.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phamiq/ai-gateway/internal/chat"
	"github.com/phamiq/ai-gateway/internal/config"
	"github.com/phamiq/ai-gateway/internal/recommend"
	"github.com/phamiq/ai-gateway/pkg/models"
)

// Handlers holds all handler dependencies.
type Handlers struct {
	Config *config.Config
	Chat   *chat.Service
	Engine *recommend.Engine
}

// New creates a Handlers instance with all dependencies.
func New(cfg *config.Config, chatSvc *chat.Service, engine *recommend.Engine) *Handlers {
	return &Handlers{Config: cfg, Chat: chatSvc, Engine: engine}
}

// ── Chat ────────────────────────────────────────────────────

func (h *Handlers) PostChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "Message must not be empty")
		return
	}

	reply := h.Chat.Chat(r.Context(), req.Message, req.ConversationHistory, req.Models)

	respondJSON(w, http.StatusOK, models.ChatResponse{
		Success: true,
		Message: reply,
		ChatID:  uuid.New().String(),
	})
}

func (h *Handlers) ChatStatus(w http.ResponseWriter, r *http.Request) {
	backend := h.Chat.Backend()
	available := backend.Available()

	connection := "not_configured"
	modelIDs := []string{}
	if available {
		if backend.TestConnection(r.Context()) {
			connection = "connected"
		} else {
			connection = "failed"
		}
		modelIDs = backend.Models()
	}

	message := "Chat service not configured"
	if available {
		message = "Chat service is ready"
	}

	respondJSON(w, http.StatusOK, models.ChatStatus{
		Status:           "success",
		Service:          "Phamiq AI Chat",
		Available:        available,
		ConnectionStatus: connection,
		Models:           modelIDs,
		APIKeyConfigured: available,
		Message:          message,
	})
}

func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ModelsResponse{
		Status:        "success",
		Models:        h.Chat.Backend().Models(),
		DefaultModels: config.DefaultModels,
	})
}

func (h *Handlers) TestChat(w http.ResponseWriter, r *http.Request) {
	backend := h.Chat.Backend()
	if !backend.Available() {
		respondError(w, http.StatusServiceUnavailable, "Chat service is not available. Please configure an AI provider API key.")
		return
	}
	if !backend.TestConnection(r.Context()) {
		respondError(w, http.StatusServiceUnavailable, "AI provider connection failed. Please check your API key and network connection.")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Chat service is available and working",
	})
}

// ── Recommendations ─────────────────────────────────────────

func (h *Handlers) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.Engine.Recommendations(r.Context(), req)
	if err != nil {
		// Only malformed caller input reaches here; provider failures are
		// absorbed into fallback templates.
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("disease", req.Disease).Str("crop", req.Crop).Msg("Recommendations served")
	respondJSON(w, http.StatusOK, rec)
}

// ── Cache ───────────────────────────────────────────────────

func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Engine.Cache().Stats())
}

func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Engine.Cache().Clear()
	log.Info().Msg("Recommendations cache cleared")
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Recommendations cache cleared",
	})
}

// ── Diseases ────────────────────────────────────────────────

func (h *Handlers) ListDiseases(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"classes": config.DiseaseClasses,
	})
}

// ── Helpers ─────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Package models defines the shared data model for the Phamiq AI gateway:
// conversation messages, recommendation requests/results, and the JSON
// bodies exchanged with API consumers.
package models

import "strconv"

// ── Conversation ────────────────────────────────────────────

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Order is semantically meaningful:
// the latest user turn comes last. Messages are never mutated once sent.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ── Recommendations ─────────────────────────────────────────

// RecommendationRequest identifies a disease detection for which treatment
// guidance is requested.
type RecommendationRequest struct {
	Disease    string   `json:"disease"`
	Confidence float64  `json:"confidence"`
	Crop       string   `json:"crop"`
	Models     []string `json:"models,omitempty"`
}

// CacheKey derives the deterministic cache identifier for this request.
func (r RecommendationRequest) CacheKey() string {
	return r.Disease + "_" + strconv.FormatFloat(r.Confidence, 'g', -1, 64) + "_" + r.Crop
}

// TreatmentProtocols groups the treatment guidance inside a Recommendation.
type TreatmentProtocols struct {
	Organic     string `json:"organic"`
	Chemical    string `json:"chemical"`
	Application string `json:"application"`
}

// Recommendation is the structured advisory produced for a disease detection.
// Every Recommendation handed to a caller has all eight fields populated,
// either from the provider or backfilled from a fallback template.
type Recommendation struct {
	DiseaseOverview    string             `json:"disease_overview"`
	ImmediateActions   string             `json:"immediate_actions"`
	TreatmentProtocols TreatmentProtocols `json:"treatment_protocols"`
	Prevention         string             `json:"prevention"`
	Monitoring         string             `json:"monitoring"`
	CostEffective      string             `json:"cost_effective"`
	SeverityLevel      string             `json:"severity_level"`
	ProfessionalHelp   string             `json:"professional_help"`
}

// Complete reports whether all eight required fields are populated.
func (r *Recommendation) Complete() bool {
	return r.DiseaseOverview != "" &&
		r.ImmediateActions != "" &&
		r.TreatmentProtocols.Organic != "" &&
		r.TreatmentProtocols.Chemical != "" &&
		r.TreatmentProtocols.Application != "" &&
		r.Prevention != "" &&
		r.Monitoring != "" &&
		r.CostEffective != "" &&
		r.SeverityLevel != "" &&
		r.ProfessionalHelp != ""
}

// CacheStats describes the recommendation cache contents.
type CacheStats struct {
	Size int      `json:"cache_size"`
	Keys []string `json:"cached_keys"`
}

// ── API bodies ──────────────────────────────────────────────

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message             string    `json:"message"`
	ConversationHistory []Message `json:"conversation_history,omitempty"`
	Models              []string  `json:"models,omitempty"`
}

// ChatResponse is the reply for POST /api/v1/chat.
type ChatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ChatID  string `json:"chat_id,omitempty"`
}

// ChatStatus reports the AI service state for GET /api/v1/chat/status.
type ChatStatus struct {
	Status           string   `json:"status"`
	Service          string   `json:"service"`
	Available        bool     `json:"alleai_available"`
	ConnectionStatus string   `json:"connection_status"`
	Models           []string `json:"models"`
	APIKeyConfigured bool     `json:"api_key_configured"`
	Message          string   `json:"message"`
}

// ModelsResponse lists the usable model identifiers.
type ModelsResponse struct {
	Status        string   `json:"status"`
	Models        []string `json:"models"`
	DefaultModels []string `json:"default_models"`
}

// Package recommend produces structured disease treatment recommendations.
//
// The engine asks the provider for a JSON object with a fixed eight-field
// schema, repairs or replaces unusable answers from hand-authored fallback
// templates, and caches every result for the process lifetime.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/internal/provider"
	"github.com/phamiq/ai-gateway/pkg/models"
)

// Engine composes the provider backend, the recommendation cache, and the
// fallback templates into the getRecommendations operation.
type Engine struct {
	backend provider.Backend
	cache   *Cache
	fb      *fallback.Responder
}

// NewEngine creates a recommendation engine.
func NewEngine(backend provider.Backend, cache *Cache, fb *fallback.Responder) *Engine {
	return &Engine{backend: backend, cache: cache, fb: fb}
}

// Cache exposes the engine's cache for the stats and clear operations.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Recommendations returns the structured advisory for a detection. The only
// error it returns is malformed caller input; every provider failure is
// absorbed into template output. All results, fallback included, are cached.
func (e *Engine) Recommendations(ctx context.Context, req models.RecommendationRequest) (*models.Recommendation, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	key := req.CacheKey()
	if rec, ok := e.cache.Get(key); ok {
		log.Info().Str("disease", req.Disease).Msg("Using cached recommendations")
		return rec, nil
	}

	if !e.backend.Available() {
		log.Warn().Str("disease", req.Disease).Msg("Provider unavailable, synthesizing fallback recommendations")
		rec := e.fb.Structured(req.Disease, req.Confidence, req.Crop)
		e.cache.Put(key, rec)
		return rec, nil
	}

	prompt := analysisPrompt(req.Disease, req.Confidence, req.Crop)

	// Sanitization is skipped here: this path needs machine-parseable JSON,
	// not human text.
	raw, err := e.backend.Complete(ctx, "", nil, prompt, provider.Options{
		Temperature: 0.3,
		MaxTokens:   1200,
		Models:      req.Models,
	})
	if err != nil {
		log.Error().Err(err).Str("disease", req.Disease).Msg("Provider call failed, synthesizing fallback recommendations")
		rec := e.fb.Structured(req.Disease, req.Confidence, req.Crop)
		e.cache.Put(key, rec)
		return rec, nil
	}

	rec := e.parse(raw, req)
	e.cache.Put(key, rec)
	return rec, nil
}

// parse decodes the provider's answer, repairing what it can: a direct JSON
// parse, then a greedy first-{-to-last-} retry, then full template
// synthesis. Parsed results with missing fields are backfilled per field.
func (e *Engine) parse(raw string, req models.RecommendationRequest) *models.Recommendation {
	var rec models.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		sub, ok := extractObject(raw)
		if !ok || json.Unmarshal([]byte(sub), &rec) != nil {
			log.Error().Str("disease", req.Disease).Msg("Unparseable recommendation response, synthesizing fallback")
			return e.fb.Structured(req.Disease, req.Confidence, req.Crop)
		}
		log.Info().Str("disease", req.Disease).Msg("Recovered recommendation JSON from surrounding text")
	}

	if !rec.Complete() {
		log.Warn().Str("disease", req.Disease).Msg("Recommendation missing required fields, backfilling from template")
		backfill(&rec, e.fb.Structured(req.Disease, req.Confidence, req.Crop))
	}
	return &rec
}

// extractObject returns the greedy first-{-to-last-} substring of text.
func extractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// backfill fills every empty field of rec from the template.
func backfill(rec, tpl *models.Recommendation) {
	if rec.DiseaseOverview == "" {
		rec.DiseaseOverview = tpl.DiseaseOverview
	}
	if rec.ImmediateActions == "" {
		rec.ImmediateActions = tpl.ImmediateActions
	}
	if rec.TreatmentProtocols.Organic == "" {
		rec.TreatmentProtocols.Organic = tpl.TreatmentProtocols.Organic
	}
	if rec.TreatmentProtocols.Chemical == "" {
		rec.TreatmentProtocols.Chemical = tpl.TreatmentProtocols.Chemical
	}
	if rec.TreatmentProtocols.Application == "" {
		rec.TreatmentProtocols.Application = tpl.TreatmentProtocols.Application
	}
	if rec.Prevention == "" {
		rec.Prevention = tpl.Prevention
	}
	if rec.Monitoring == "" {
		rec.Monitoring = tpl.Monitoring
	}
	if rec.CostEffective == "" {
		rec.CostEffective = tpl.CostEffective
	}
	if rec.SeverityLevel == "" {
		rec.SeverityLevel = tpl.SeverityLevel
	}
	if rec.ProfessionalHelp == "" {
		rec.ProfessionalHelp = tpl.ProfessionalHelp
	}
}

func validate(req models.RecommendationRequest) error {
	if strings.TrimSpace(req.Disease) == "" {
		return fmt.Errorf("recommend: disease must not be empty")
	}
	if strings.TrimSpace(req.Crop) == "" {
		return fmt.Errorf("recommend: crop must not be empty")
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		return fmt.Errorf("recommend: confidence %v out of range [0,1]", req.Confidence)
	}
	return nil
}

// analysisPrompt builds the structured-output prompt for one detection.
func analysisPrompt(disease string, confidence float64, crop string) string {
	return fmt.Sprintf(`You are an expert agricultural scientist specializing in crop disease management.

**Analysis Request:**
- Disease: %s
- Confidence Level: %.1f%%
- Crop Type: %s

Please provide a comprehensive analysis covering: disease overview, immediate action plan, treatment protocols (organic, chemical, application timing), prevention strategies, monitoring and follow-up, and cost-effective solutions.

Format your response as a valid JSON object with these fields:
{
    "disease_overview": "Brief disease description and key symptoms",
    "immediate_actions": "Step-by-step immediate response plan",
    "treatment_protocols": {
        "organic": "Organic treatment methods",
        "chemical": "Chemical options if applicable",
        "application": "How and when to apply treatments"
    },
    "prevention": "Long-term prevention strategies",
    "monitoring": "How to monitor progress and effectiveness",
    "cost_effective": "Budget-friendly solutions",
    "severity_level": "Low/Moderate/High based on disease type",
    "professional_help": "When to consult agricultural experts"
}

**IMPORTANT:**
- Respond ONLY with a valid JSON object matching the structure above.
- Do NOT include any text, explanation, or markdown formatting before or after the JSON.
- Only output the JSON object.`, disease, confidence*100, crop)
}

// Package config loads gateway configuration from environment variables.
// A .env file in the working directory is honored when present.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultAlleAIURL is the native AlleAI chat completions endpoint.
	DefaultAlleAIURL = "https://api.alle-ai.com/api/v1/chat/completions"

	// BackendAlleAI and BackendOpenAI select which upstream serves chat.
	// Structured recommendations always use the native AlleAI format.
	BackendAlleAI = "alleai"
	BackendOpenAI = "openai"
)

// DefaultModels is the model set used when a caller does not override it.
var DefaultModels = []string{"gpt-4o", "yi-large"}

// Config holds all configuration for the Phamiq AI gateway.
type Config struct {
	Port    int
	Version string

	AlleAI    AlleAIConfig
	OpenAI    OpenAIConfig
	Telemetry TelemetryConfig

	// ChatBackend is BackendAlleAI or BackendOpenAI.
	ChatBackend string

	AllowedOrigins []string
}

// AlleAIConfig configures the native AlleAI provider.
type AlleAIConfig struct {
	// APIKey is the provider credential. Empty means the gateway runs in
	// fallback-only mode; it is not a fatal condition.
	APIKey string
	APIURL string
}

// OpenAIConfig configures the optional OpenAI-compatible chat backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	// Best effort; absence of a .env file is normal in production.
	_ = godotenv.Load()

	cfg := &Config{
		Port:    envInt("PHAMIQ_PORT", 8000),
		Version: envStr("PHAMIQ_VERSION", "1.0.0"),
		AlleAI: AlleAIConfig{
			APIKey: strings.TrimSpace(envStr("ALLEAI_API_KEY", "")),
			APIURL: envStr("ALLEAI_API_URL", DefaultAlleAIURL),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(envStr("OPENAI_API_KEY", "")),
			BaseURL: envStr("OPENAI_BASE_URL", ""),
			Model:   envStr("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "phamiq-ai-gateway"),
		},
		ChatBackend:    envStr("AI_CHAT_BACKEND", BackendAlleAI),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.AlleAI.APIKey != "" && !strings.HasPrefix(cfg.AlleAI.APIKey, "alle-") {
		log.Warn().
			Str("prefix", truncateKey(cfg.AlleAI.APIKey)).
			Msg("AlleAI API key format may be incorrect, expected 'alle-' prefix")
	}

	return cfg
}

// truncateKey returns a loggable, non-sensitive prefix of a credential.
func truncateKey(key string) string {
	if len(key) <= 10 {
		return key
	}
	return key[:10] + "..."
}

// ── Disease class table ─────────────────────────────────────

// DiseaseClasses maps classifier class codes to disease identifiers.
// The identifier is "<crop>_<condition>", matching the classification model
// the route layer runs upstream of this gateway.
var DiseaseClasses = map[string]string{
	"c1":  "cashew_anthracnose",
	"c2":  "cashew_gummosis",
	"c3":  "cashew_healthy",
	"c4":  "cashew_leafminer",
	"c5":  "cashew_redrust",
	"ca1": "cassava_bacterial_blight",
	"ca2": "cassava_brown_spot",
	"ca3": "cassava_green_mite",
	"ca4": "cassava_healthy",
	"ca5": "cassava_mosaic",
	"m1":  "maize_fall_armyworm",
	"m2":  "maize_grasshopper",
	"m3":  "maize_healthy",
	"m4":  "maize_leaf_beetle",
	"m5":  "maize_leaf_blight",
	"m6":  "maize_leaf_spot",
	"m7":  "maize_streak_virus",
	"t1":  "tomato_healthy",
	"t2":  "tomato_leaf_blight",
	"t3":  "tomato_leaf_curl",
	"t4":  "tomato_leaf_spot",
	"t5":  "tomato_verticillium_wilt",
}

// ── Env helpers ─────────────────────────────────────────────

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Phamiq AI Gateway — the AI-provider boundary for the Phamiq crop disease
// assistant. It answers chat turns, produces structured disease
// recommendations, and degrades to canned advisories whenever the upstream
// provider is unreachable or billing-blocked.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/phamiq/ai-gateway/internal/api"
	"github.com/phamiq/ai-gateway/internal/api/handlers"
	"github.com/phamiq/ai-gateway/internal/chat"
	"github.com/phamiq/ai-gateway/internal/config"
	"github.com/phamiq/ai-gateway/internal/fallback"
	"github.com/phamiq/ai-gateway/internal/provider"
	"github.com/phamiq/ai-gateway/internal/recommend"
	"github.com/phamiq/ai-gateway/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	responder := fallback.New()

	// The native AlleAI client always exists: recommendations use its wire
	// format even when chat is served elsewhere.
	alleai := provider.NewClient(cfg.AlleAI.APIKey, cfg.AlleAI.APIURL, config.DefaultModels, responder)
	if alleai.Available() {
		log.Info().Msg("AlleAI provider configured")
	} else {
		log.Warn().Msg("No AlleAI API key configured, recommendations run in fallback-only mode")
	}

	var chatBackend provider.Backend = alleai
	if cfg.ChatBackend == config.BackendOpenAI {
		chatBackend = provider.NewOpenAIBackend(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, responder)
		log.Info().Str("model", cfg.OpenAI.Model).Msg("Chat served by OpenAI-compatible backend")
	}

	chatSvc := chat.NewService(chatBackend, responder)
	engine := recommend.NewEngine(alleai, recommend.NewCache(), responder)

	h := handlers.New(cfg, chatSvc, engine)
	router := api.NewRouter(cfg, h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		shutdownTelemetry(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("Phamiq AI gateway listening")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// Self-hosted voice assistant: WebRTC audio in, speech pipeline in the
// middle, workflow tools and a control-plane HTTP API around it.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxhollow/voice-agent/pkg/agent"
)

func main() {
	cfg := parseFlags()

	app, err := agent.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment overrides are applied later, in agent.New.
func parseFlags() agent.Config {
	cfg := agent.DefaultConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Control-plane listen address")
	flag.StringVar(&cfg.LLMBaseURL, "llm-url", cfg.LLMBaseURL, "Language model server base URL")
	flag.StringVar(&cfg.LLMModel, "llm-model", "", "Language model name (server default if empty)")
	flag.StringVar(&cfg.STTBaseURL, "stt-url", cfg.STTBaseURL, "Speech-to-text server base URL")
	flag.StringVar(&cfg.TTSBaseURL, "tts-url", cfg.TTSBaseURL, "Text-to-speech server base URL")
	flag.StringVar(&cfg.TTSVoice, "tts-voice", "", "TTS voice name")
	flag.StringVar(&cfg.CatalogURL, "catalog-url", cfg.CatalogURL, "Workflow catalog endpoint (empty disables workflows)")
	flag.StringVar(&cfg.WebhookBaseURL, "webhook-url", cfg.WebhookBaseURL, "Workflow webhook base URL")
	flag.StringVar(&cfg.ServersPath, "catalog-servers", "", "Optional JSON file listing extra catalog servers")
	flag.StringVar(&cfg.SearxURL, "searx-url", "", "SearxNG base URL (empty disables web search)")
	flag.StringVar(&cfg.SystemPromptPath, "system-prompt", cfg.SystemPromptPath, "Persona prompt file")
	flag.DurationVar(&cfg.CacheTTL, "catalog-cache-ttl", cfg.CacheTTL, "Workflow metadata cache TTL")
	flag.Parse()

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return cfg
}

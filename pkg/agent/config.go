// Package agent wires the full assistant together: audio transport, the
// speech pipeline, the workflow tool catalog, and the control plane.
package agent

import (
	"os"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultListenAddr = ":8080"

	DefaultLLMBaseURL = "http://localhost:11434"
	DefaultSTTBaseURL = "http://localhost:8000"
	DefaultTTSBaseURL = "http://localhost:8880"

	DefaultCatalogURL = "http://localhost:5678/mcp/sse"
	DefaultWebhookURL = "http://localhost:5678"

	DefaultSystemPromptPath = "system_prompt.txt"
)

// defaultSystemPrompt is used when no prompt file is present.
const defaultSystemPrompt = "You are a helpful voice assistant. Keep your answers short and " +
	"conversational; they will be spoken aloud. Use the available tools when " +
	"a request calls for them, and summarize tool output in plain speech."

// Config holds all configuration for the agent. Flag parsing is done in
// cmd/agent/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// ListenAddr is the control-plane listen address.
	ListenAddr string

	// Language model server.
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Speech-to-text server.
	STTBaseURL string
	STTModel   string
	Language   string

	// Text-to-speech server.
	TTSBaseURL string
	TTSVoice   string
	TTSModel   string

	// Workflow catalog.
	CatalogURL     string
	CatalogToken   string
	WebhookBaseURL string
	ServersPath    string
	CacheTTL       time.Duration

	// Web search backend. Empty disables the web_search tool.
	SearxURL string

	// SystemPromptPath points at the persona prompt file.
	SystemPromptPath string

	// STUNServers for WebRTC ICE. Empty means host candidates only.
	STUNServers []string
}

// DefaultConfig returns sensible defaults for a single-host deployment.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       DefaultListenAddr,
		LLMBaseURL:       DefaultLLMBaseURL,
		STTBaseURL:       DefaultSTTBaseURL,
		TTSBaseURL:       DefaultTTSBaseURL,
		CatalogURL:       DefaultCatalogURL,
		WebhookBaseURL:   DefaultWebhookURL,
		ServersPath:      "",
		CacheTTL:         time.Hour,
		SystemPromptPath: DefaultSystemPromptPath,
	}
}

// LoadEnvConfig applies environment overrides: a set environment variable
// replaces the corresponding flag or default value.
func (c *Config) LoadEnvConfig() {
	setIfEnv(&c.ListenAddr, "AGENT_LISTEN_ADDR")
	setIfEnv(&c.LLMBaseURL, "LLM_BASE_URL")
	setIfEnv(&c.LLMModel, "LLM_MODEL")
	setIfEnv(&c.STTBaseURL, "STT_BASE_URL")
	setIfEnv(&c.TTSBaseURL, "TTS_BASE_URL")
	setIfEnv(&c.TTSVoice, "TTS_VOICE")
	setIfEnv(&c.CatalogURL, "CATALOG_URL")
	setIfEnv(&c.CatalogToken, "CATALOG_AUTH_TOKEN")
	setIfEnv(&c.WebhookBaseURL, "WEBHOOK_BASE_URL")
	setIfEnv(&c.SearxURL, "SEARX_URL")
	setIfEnv(&c.SystemPromptPath, "SYSTEM_PROMPT_PATH")
	c.LLMAPIKey = os.Getenv("LLM_API_KEY")

	if stun := os.Getenv("STUN_SERVERS"); stun != "" {
		c.STUNServers = splitList(stun)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return &ConfigError{Field: "ListenAddr", Message: "listen address is required"}
	}
	if c.LLMBaseURL == "" {
		return &ConfigError{Field: "LLMBaseURL", Message: "language model base URL is required"}
	}
	if c.STTBaseURL == "" {
		return &ConfigError{Field: "STTBaseURL", Message: "speech-to-text base URL is required"}
	}
	if c.TTSBaseURL == "" {
		return &ConfigError{Field: "TTSBaseURL", Message: "text-to-speech base URL is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadSystemPrompt reads the persona prompt file, falling back to the
// built-in default when the file is missing or empty.
func LoadSystemPrompt(path string) string {
	if path == "" {
		return defaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

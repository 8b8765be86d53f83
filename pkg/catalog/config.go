package catalog

import (
	"encoding/json"
	"os"
	"time"

	"github.com/voxhollow/voice-agent/internal/log"
)

// Default configuration values.
const (
	// DefaultCallTimeout bounds each metadata fetch against the catalog server.
	DefaultCallTimeout = 10 * time.Second

	// DefaultCacheTTL is how long the workflow detail cache stays warm.
	DefaultCacheTTL = time.Hour

	// DefaultServersFile is the optional JSON file listing extra catalog servers.
	DefaultServersFile = "mcp_servers.json"
)

// Transport identifies how the protocol client reaches a server.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable_http"
)

// ServerConfig describes one catalog server.
type ServerConfig struct {
	// Name identifies the server in logs.
	Name string `json:"name"`

	// URL is the protocol endpoint.
	URL string `json:"url"`

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string `json:"auth_token,omitempty"`

	// Transport selects sse or streamable_http. Empty means
	// streamable_http for URLs ending in /http, sse otherwise.
	Transport string `json:"transport,omitempty"`

	// Timeout bounds each remote call. Zero means DefaultCallTimeout.
	Timeout time.Duration `json:"-"`
}

// serversFile is the schema of the optional config file. Timeouts in the
// file are seconds, matching the automation server's own convention.
type serversFile struct {
	Servers []struct {
		Name      string  `json:"name"`
		URL       string  `json:"url"`
		AuthToken string  `json:"auth_token"`
		Transport string  `json:"transport"`
		Timeout   float64 `json:"timeout"`
	} `json:"servers"`
}

// LoadServersFile reads extra server configs from path. A missing file is
// not an error; a malformed file is logged and skipped so that servers
// configured through the environment still load.
func LoadServersFile(path string) []ServerConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read servers file", "path", path, "error", err)
		}
		return nil
	}

	var file serversFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Error("failed to parse servers file", "path", path, "error", err)
		return nil
	}

	servers := make([]ServerConfig, 0, len(file.Servers))
	for _, s := range file.Servers {
		if s.URL == "" {
			log.Warn("skipping server config without url", "name", s.Name)
			continue
		}
		cfg := ServerConfig{
			Name:      s.Name,
			URL:       s.URL,
			AuthToken: s.AuthToken,
			Transport: s.Transport,
		}
		if s.Timeout > 0 {
			cfg.Timeout = time.Duration(s.Timeout * float64(time.Second))
		}
		servers = append(servers, cfg)
		log.Debug("loaded server config", "name", s.Name, "url", s.URL)
	}
	return servers
}

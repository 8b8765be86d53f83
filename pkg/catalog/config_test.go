package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeServersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcp_servers.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write servers file: %v", err)
	}
	return path
}

func TestLoadServersFile(t *testing.T) {
	path := writeServersFile(t, `{
		"servers": [
			{"name": "automation", "url": "http://n8n:5678/mcp/http", "auth_token": "tok", "transport": "streamable_http", "timeout": 5.0},
			{"name": "extra", "url": "http://other:8080/sse"}
		]
	}`)

	servers := LoadServersFile(path)
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].Name != "automation" || servers[0].AuthToken != "tok" {
		t.Errorf("first server mis-parsed: %+v", servers[0])
	}
	if servers[0].Timeout != 5*time.Second {
		t.Errorf("timeout seconds not converted: %v", servers[0].Timeout)
	}
	if servers[1].Timeout != 0 {
		t.Errorf("missing timeout should stay zero: %v", servers[1].Timeout)
	}
}

func TestLoadServersFileMissing(t *testing.T) {
	servers := LoadServersFile(filepath.Join(t.TempDir(), "absent.json"))
	if servers != nil {
		t.Errorf("expected nil for missing file, got %v", servers)
	}
}

func TestLoadServersFileMalformed(t *testing.T) {
	path := writeServersFile(t, `{not json`)
	servers := LoadServersFile(path)
	if len(servers) != 0 {
		t.Errorf("malformed file must load zero servers, got %v", servers)
	}
}

func TestLoadServersFileSkipsEntriesWithoutURL(t *testing.T) {
	path := writeServersFile(t, `{"servers":[{"name":"nourl"},{"name":"ok","url":"http://x"}]}`)
	servers := LoadServersFile(path)
	if len(servers) != 1 || servers[0].Name != "ok" {
		t.Errorf("expected only the entry with a url, got %v", servers)
	}
}

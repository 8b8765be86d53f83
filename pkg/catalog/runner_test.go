package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestRunnerExecutesWebhook(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	runner := NewRunner(srv.URL, NameMap{"my_flow": "My Flow"}, nil)

	out, err := runner.Run(context.Background(), "my_flow", map[string]any{"action": "ping"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gotPath != "/webhook/My Flow" {
		t.Errorf("wrong webhook path: %q", gotPath)
	}
	if gotBody["action"] != "ping" {
		t.Errorf("arguments not forwarded: %v", gotBody)
	}
	if out != `{"result":"ok"}` {
		t.Errorf("unexpected result: %q", out)
	}
}

func TestRunnerUnknownTool(t *testing.T) {
	runner := NewRunner("http://localhost:5678", NameMap{}, nil)

	_, err := runner.Run(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRunnerNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	runner := NewRunner(srv.URL, NameMap{"flow": "flow"}, nil)

	_, err := runner.Run(context.Background(), "flow", nil)
	var whErr *WebhookError
	if !errors.As(err, &whErr) {
		t.Fatalf("expected *WebhookError, got %v", err)
	}
	if whErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", whErr.StatusCode)
	}
	if !whErr.IsServerError() {
		t.Error("expected IsServerError")
	}
}

func TestRunnerTransportError(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	runner := NewRunner(srv.URL, NameMap{"flow": "flow"}, nil)

	_, err := runner.Run(context.Background(), "flow", nil)
	var whErr *WebhookError
	if !errors.As(err, &whErr) {
		t.Fatalf("expected *WebhookError, got %v", err)
	}
	if whErr.StatusCode != 0 {
		t.Errorf("transport errors must carry StatusCode 0, got %d", whErr.StatusCode)
	}
}

func TestRunnerConcurrentRebind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	// Rediscovery swaps bindings while live conversations keep invoking
	// tools; both must be able to interleave freely.
	runner := NewRunner(srv.URL, NameMap{"flow": "Flow"}, nil)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			runner.SetNames(NameMap{"flow": "Flow"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := runner.Run(context.Background(), "flow", nil); err != nil {
				t.Errorf("Run failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

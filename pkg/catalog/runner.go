package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/voxhollow/voice-agent/internal/httpc"
)

// Runner executes discovered workflows over HTTP. By convention every
// workflow listens on a webhook whose path equals the workflow name:
// POST {base_url}/webhook/{workflow_name} with the tool arguments as JSON.
// Safe for concurrent use; rediscovery rebinds names while conversations
// keep invoking tools.
type Runner struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	names NameMap
}

// NewRunner creates a Runner for the automation server at baseURL.
func NewRunner(baseURL string, names NameMap, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		names:   names,
		client:  httpc.Client,
		logger:  logger.With("component", "catalog.runner"),
	}
}

// SetNames replaces the tool-name bindings, e.g. after a rediscovery pass.
func (r *Runner) SetNames(names NameMap) {
	r.mu.Lock()
	r.names = names
	r.mu.Unlock()
}

// Run resolves the tool name to its workflow and executes it with the given
// arguments. The response body is returned verbatim; on non-2xx responses or
// transport errors a *WebhookError is returned.
func (r *Runner) Run(ctx context.Context, toolName string, args map[string]any) (string, error) {
	r.mu.RLock()
	workflow, ok := r.names[toolName]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}
	return r.Execute(ctx, workflow, args)
}

// Execute posts the arguments to the workflow's webhook endpoint.
func (r *Runner) Execute(ctx context.Context, workflow string, args map[string]any) (string, error) {
	url := r.baseURL + "/webhook/" + workflow

	body, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("catalog: encode arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("workflow execution failed", "workflow", workflow, "error", err)
		return "", &WebhookError{Workflow: workflow, Message: err.Error()}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &WebhookError{Workflow: workflow, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Error("workflow returned error status",
			"workflow", workflow,
			"status", resp.StatusCode,
		)
		return "", &WebhookError{
			Workflow:   workflow,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
	}

	return string(payload), nil
}

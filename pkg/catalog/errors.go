package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoServer is returned when no catalog server is configured.
	ErrNoServer = errors.New("catalog: no server configured")

	// ErrUnknownTool is returned when a tool name has no workflow binding.
	ErrUnknownTool = errors.New("catalog: unknown tool")

	// ErrNotConnected is returned when the protocol client is not initialized.
	ErrNotConnected = errors.New("catalog: client not connected")
)

// WebhookError represents a failed workflow execution over HTTP.
type WebhookError struct {
	// Workflow is the original workflow name.
	Workflow string

	// StatusCode is the HTTP status code, 0 for transport errors.
	StatusCode int

	// Message is the response body or transport error text.
	Message string
}

// Error implements the error interface.
func (e *WebhookError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("catalog: workflow %q: %s", e.Workflow, e.Message)
	}
	return fmt.Sprintf("catalog: workflow %q: HTTP %d: %s", e.Workflow, e.StatusCode, e.Message)
}

// IsServerError returns true for HTTP 5xx responses.
func (e *WebhookError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

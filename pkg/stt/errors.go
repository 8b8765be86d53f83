package stt

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAudio is returned when no audio is provided for transcription.
	ErrEmptyAudio = errors.New("stt: empty audio")

	// ErrNotConnected is returned when a streaming operation is attempted
	// before Connect succeeds or after the connection closed.
	ErrNotConnected = errors.New("stt: not connected")

	// ErrProviderUnavailable is returned when no STT provider can be reached.
	ErrProviderUnavailable = errors.New("stt: provider unavailable")
)

// APIError represents an error response from an STT server.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("stt %s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsServerError reports whether the error is a server-side (5xx) failure.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ProviderError wraps an underlying transport or protocol error with the
// provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("stt %s: %v", e.Provider, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context, preserving nil.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

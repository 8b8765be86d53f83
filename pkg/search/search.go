// Package search provides a voice-friendly web search tool. It queries a
// search backend, then condenses the results with the local language model
// into a short spoken answer instead of a list of links.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxhollow/voice-agent/pkg/inference"
)

// Spoken fallback responses. These go straight to TTS, so they are phrased
// for the ear rather than the screen.
const (
	replyNoResults     = "I couldn't find any results for that search."
	replyTimeout       = "The search took too long. Please try a simpler query."
	replySearchFailed  = "I had trouble searching the web. Please try again."
	replyNoSummary     = "I found some results but couldn't summarize them."
	replyNoDescription = "No description available."
)

const summarizePrompt = `Summarize the following search results in 1-3 sentences for voice output.
Be concise and conversational. Do not include URLs, markdown, or bullet points.
Focus on directly answering what the user would want to know.

Search query: %s

Results:
%s

Summary:`

// Result limits applied before summarization to stay inside model context.
const (
	maxTitleChars = 100
	maxBodyChars  = 200
)

// Result is a single hit from a search backend.
type Result struct {
	Title string
	Body  string
	URL   string
}

// Backend executes the raw web search.
type Backend interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Tool searches the web and summarizes results for voice output. Search
// never returns an error: every failure mode maps to a spoken reply, so
// the assistant always has something to say.
type Tool struct {
	backend    Backend
	llm        inference.Provider
	model      string
	maxResults int
	timeout    time.Duration
	logger     *slog.Logger
}

// ToolOption configures a search Tool.
type ToolOption func(*Tool)

// WithMaxResults caps the number of results fetched per query.
func WithMaxResults(n int) ToolOption {
	return func(t *Tool) { t.maxResults = n }
}

// WithSearchTimeout bounds the backend search.
func WithSearchTimeout(d time.Duration) ToolOption {
	return func(t *Tool) { t.timeout = d }
}

// WithModel sets the summarization model.
func WithModel(model string) ToolOption {
	return func(t *Tool) { t.model = model }
}

// WithToolLogger sets the logger.
func WithToolLogger(logger *slog.Logger) ToolOption {
	return func(t *Tool) { t.logger = logger }
}

// NewTool creates a web search tool over the given backend and summarizer.
func NewTool(backend Backend, llm inference.Provider, opts ...ToolOption) *Tool {
	t := &Tool{
		backend:    backend,
		llm:        llm,
		maxResults: 5,
		timeout:    10 * time.Second,
		logger:     slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Search runs the query and returns a spoken answer.
func (t *Tool) Search(ctx context.Context, query string) string {
	t.logger.Info("web search", "query", query)

	searchCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	results, err := t.backend.Search(searchCtx, query, t.maxResults)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			t.logger.Warn("web search timed out", "query", query)
			return replyTimeout
		}
		t.logger.Error("web search failed", "query", query, "error", err)
		return replySearchFailed
	}

	if len(results) == 0 {
		return replyNoResults
	}

	return t.summarize(ctx, query, results)
}

// summarize condenses results into 1-3 conversational sentences.
func (t *Tool) summarize(ctx context.Context, query string, results []Result) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1,
			truncate(r.Title, maxTitleChars),
			truncate(r.Body, maxBodyChars))
	}

	prompt := fmt.Sprintf(summarizePrompt, query, strings.TrimRight(sb.String(), "\n"))

	resp, err := t.llm.Chat(ctx, &inference.ChatRequest{
		Messages:    []inference.Message{inference.NewUserMessage(prompt)},
		Model:       t.model,
		Temperature: 0.3,
	})
	if err != nil {
		t.logger.Error("summarization failed", "error", err)
		if body := strings.TrimSpace(results[0].Body); body != "" {
			return body
		}
		return replyNoDescription
	}

	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return replyNoSummary
	}
	return summary
}

// truncate limits s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatCompletion(t *testing.T) {
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "qwen3:8b",
			"choices": [{"message": {"content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL+"/v1"), WithModel("qwen3:8b"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Message.Content != "hello there" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if resp.Message.Role != RoleAssistant {
		t.Errorf("unexpected role: %q", resp.Message.Role)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if gotPayload["model"] != "qwen3:8b" {
		t.Errorf("model not forwarded: %v", gotPayload["model"])
	}
}

func TestChatToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		tools, _ := payload["tools"].([]any)
		if len(tools) != 1 {
			t.Errorf("expected 1 tool in payload, got %d", len(tools))
		}
		w.Write([]byte(`{
			"choices": [{
				"message": {
					"content": "",
					"tool_calls": [{"id": "call_1", "function": {"name": "web_search", "arguments": "{\"query\":\"weather\"}"}}]
				},
				"finish_reason": "tool_calls"
			}]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(WithBaseURL(srv.URL+"/v1"), WithModel("m"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("what's the weather")},
		Tools:    []Tool{NewTool("web_search", "Search the web", map[string]any{"type": "object"})},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if len(resp.Message.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.Message.ToolCalls))
	}
	tc := resp.Message.ToolCalls[0]
	if tc.Name != "web_search" || tc.ID != "call_1" {
		t.Errorf("unexpected tool call: %+v", tc)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("unexpected finish reason: %q", resp.FinishReason)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model not loaded"}}`))
	}))
	defer srv.Close()

	client, _ := NewClient(WithBaseURL(srv.URL+"/v1"), WithModel("m"))

	_, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Message != "model not loaded" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if !apiErr.IsServerError() {
		t.Error("expected IsServerError")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": [{"name": "qwen3:8b"}, {"name": "llama3:70b"}, {"name": ""}]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(WithBaseURL(srv.URL+"/v1"), WithModel("m"))

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen3:8b" || models[1] != "llama3:70b" {
		t.Errorf("unexpected models: %v", models)
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(WithModel(""))
	if !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

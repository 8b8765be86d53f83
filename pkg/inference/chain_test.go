package inference

import (
	"context"
	"errors"
	"testing"
)

func TestChainFirstProviderWins(t *testing.T) {
	primary := NewMock("from primary")
	fallback := NewMock("from fallback")

	chain, err := NewChain(primary, fallback)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}

	resp, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != "from primary" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
	if len(fallback.Requests()) != 0 {
		t.Error("fallback should not be consulted when primary succeeds")
	}
}

func TestChainFallsBack(t *testing.T) {
	primary := &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	fallback := NewMock("from fallback")

	chain, _ := NewChain(primary, fallback)

	resp, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != "from fallback" {
		t.Errorf("unexpected content: %q", resp.Message.Content)
	}
}

func TestChainAllFail(t *testing.T) {
	failing := &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, errors.New("down")
		},
	}

	chain, _ := NewChain(failing, failing)

	_, err := chain.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("expected *ChainError, got %v", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %d", len(chainErr.Errors))
	}
}

func TestChainRequiresProviders(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

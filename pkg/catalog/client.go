package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolCaller is the narrow protocol surface discovery needs: invoke a named
// remote procedure and get its textual payload back. Implementations must be
// safe for concurrent use.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// MCPCaller implements ToolCaller over the Model Context Protocol.
type MCPCaller struct {
	cfg    ServerConfig
	client *mcpclient.Client
	logger *slog.Logger
}

// NewMCPCaller creates a caller for the given server. Call Connect before use.
func NewMCPCaller(cfg ServerConfig, logger *slog.Logger) *MCPCaller {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPCaller{
		cfg:    cfg,
		logger: logger.With("component", "catalog.mcp", "server", cfg.Name),
	}
}

// Connect establishes the protocol session and performs the initialize
// handshake.
func (c *MCPCaller) Connect(ctx context.Context) error {
	headers := map[string]string{}
	if c.cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + c.cfg.AuthToken
	}

	var (
		trans transport.Interface
		err   error
	)
	if c.useStreamableHTTP() {
		trans, err = transport.NewStreamableHTTP(c.cfg.URL, transport.WithHTTPHeaders(headers))
	} else {
		trans, err = transport.NewSSE(c.cfg.URL, transport.WithHeaders(headers))
	}
	if err != nil {
		return fmt.Errorf("catalog: create transport: %w", err)
	}

	client := mcpclient.NewClient(trans)
	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("catalog: start client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "voice-agent",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		client.Close()
		return fmt.Errorf("catalog: initialize: %w", err)
	}

	c.client = client
	c.logger.Info("connected to catalog server", "url", c.cfg.URL)
	return nil
}

// useStreamableHTTP mirrors the server-side convention: explicit transport
// config wins, otherwise URLs ending in /http speak streamable HTTP.
func (c *MCPCaller) useStreamableHTTP() bool {
	if c.cfg.Transport != "" {
		return c.cfg.Transport == TransportStreamableHTTP
	}
	return strings.HasSuffix(c.cfg.URL, "/http")
}

// CallTool invokes a remote procedure and returns the first text content of
// the result. The per-call timeout from the server config applies on top of
// any deadline already on ctx.
func (c *MCPCaller) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.client == nil {
		return "", ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("catalog: call %s: %w", name, err)
	}

	text := textContent(result)
	if result.IsError {
		return "", fmt.Errorf("catalog: call %s: server error: %s", name, text)
	}
	return text, nil
}

// Close tears down the protocol session.
func (c *MCPCaller) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// textContent extracts the first text block from a tool result.
func textContent(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// ParsePayload interprets a remote procedure's textual payload. Payloads are
// JSON when the procedure returns structured data, but some legitimately
// return plain text; those come back as the raw string.
func ParsePayload(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// ConnectWithRetry calls Connect, retrying with a fixed delay. Useful at
// startup when the automation server may still be coming up.
func (c *MCPCaller) ConnectWithRetry(ctx context.Context, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = c.Connect(ctx); err == nil {
			return nil
		}
		c.logger.Warn("catalog connect failed, retrying", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

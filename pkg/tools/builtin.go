package tools

import (
	"context"
	"fmt"

	"github.com/voxhollow/voice-agent/pkg/catalog"
	"github.com/voxhollow/voice-agent/pkg/search"
)

// WebSearchName is the tool name the model uses to search the web.
const WebSearchName = "web_search"

// RegisterWorkflows binds discovered workflow definitions to the registry,
// each dispatching through the shared runner. Previously registered
// workflow tools not present in defs are left alone; callers that want a
// clean slate rebuild the registry instead.
func RegisterWorkflows(r *Registry, defs []catalog.Definition, runner *catalog.Runner) {
	for _, def := range defs {
		def := def
		r.Register(Entry{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				return runner.Run(ctx, def.Name, args)
			},
		})
	}
}

// RegisterWebSearch exposes the web search tool to the model.
func RegisterWebSearch(r *Registry, tool *search.Tool) {
	r.Register(Entry{
		Name:        WebSearchName,
		Description: "Search the web for current information. Use for questions about recent events, facts you are unsure of, or anything requiring up-to-date data.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			if query == "" {
				return "", fmt.Errorf("web_search: missing query")
			}
			return tool.Search(ctx, query), nil
		},
	})
}

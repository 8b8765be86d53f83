package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Discoverer enumerates workflows on the automation server and derives tool
// definitions from them. Safe for concurrent use; multiple sessions starting
// at once may run discovery simultaneously. Redundant fetches for the same
// cold cache key are tolerated rather than serialized.
type Discoverer struct {
	caller ToolCaller
	cache  *DetailCache
	logger *slog.Logger
}

// NewDiscoverer creates a Discoverer. The cache is required; pass a fresh
// one if no sharing across sessions is wanted.
func NewDiscoverer(caller ToolCaller, cache *DetailCache, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		caller: caller,
		cache:  cache,
		logger: logger.With("component", "catalog.discovery"),
	}
}

// Cache returns the detail cache, for control-plane reloads.
func (d *Discoverer) Cache() *DetailCache {
	return d.cache
}

// Discover lists workflows and produces one tool definition per workflow
// plus the name map binding sanitized tool names to workflow names.
//
// Discovery never fails: an unreachable or malformed catalog yields zero
// definitions, and a single workflow with broken metadata degrades only its
// own description. Both conditions are logged.
func (d *Discoverer) Discover(ctx context.Context) ([]Definition, NameMap) {
	if cleared := d.cache.Expire(); cleared {
		d.logger.Debug("cleared workflow detail cache (TTL expired)")
	}

	workflows, err := d.listWorkflows(ctx)
	if err != nil {
		d.logger.Warn("failed to discover workflows", "error", err)
		return nil, NameMap{}
	}

	d.logger.Info("loading workflows", "count", len(workflows))

	defs := make([]Definition, 0, len(workflows))
	names := make(NameMap, len(workflows))

	for _, wf := range workflows {
		toolName := d.uniqueToolName(SanitizeToolName(wf.Name), names)

		detail, err := d.fetchDetail(ctx, wf.ID)
		if err != nil {
			// Broken metadata costs this workflow its description, nothing more.
			d.logger.Warn("failed to get workflow details", "workflow", wf.Name, "error", err)
			detail = WorkflowDetail{}
		}

		defs = append(defs, Definition{
			Name:        toolName,
			Description: ResolveDescription(toolName, wf, detail),
			Parameters:  OpenParameters(),
		})
		names[toolName] = wf.Name
		d.logger.Debug("registered workflow tool", "tool", toolName)
	}

	return defs, names
}

// listWorkflows calls search_workflows and decodes the listing payload.
func (d *Discoverer) listWorkflows(ctx context.Context) ([]WorkflowSummary, error) {
	text, err := d.caller.CallTool(ctx, procSearchWorkflows, map[string]any{})
	if err != nil {
		return nil, err
	}

	var list workflowList
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("decode workflow list: %w", err)
	}
	if list.Data == nil {
		return nil, fmt.Errorf("workflows payload missing data field")
	}
	return list.Data, nil
}

// fetchDetail returns the workflow detail, from cache when warm.
func (d *Discoverer) fetchDetail(ctx context.Context, id string) (WorkflowDetail, error) {
	if detail, ok := d.cache.Get(id); ok {
		return detail, nil
	}

	text, err := d.caller.CallTool(ctx, procGetWorkflowDetails, map[string]any{"workflowId": id})
	if err != nil {
		return WorkflowDetail{}, err
	}

	var detail WorkflowDetail
	if err := json.Unmarshal([]byte(text), &detail); err != nil {
		return WorkflowDetail{}, fmt.Errorf("decode workflow detail: %w", err)
	}

	d.cache.Put(id, detail)
	return detail, nil
}

// uniqueToolName appends a numeric suffix when distinct workflow names
// normalize to the same tool name, so no registration is silently shadowed.
func (d *Discoverer) uniqueToolName(name string, taken NameMap) string {
	if _, exists := taken[name]; !exists {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if _, exists := taken[candidate]; !exists {
			d.logger.Warn("tool name collision, disambiguating", "name", name, "tool", candidate)
			return candidate
		}
	}
}

package catalog

import (
	"fmt"
	"strings"
)

// SanitizeToolName converts a workflow display name into a tool name the
// language model runtime accepts: lowercase, with each space and hyphen
// replaced by an underscore. The mapping is deterministic and lossy;
// distinct workflow names may normalize to the same tool name.
func SanitizeToolName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}

// ExtractDescription scans the workflow's nodes for the first trigger node
// carrying non-empty notes and returns them trimmed; a trigger node's own
// description field is the per-node fallback. Returns "" when no trigger
// node documents the workflow; callers apply the remaining fallbacks.
func ExtractDescription(detail WorkflowDetail) string {
	for _, node := range detail.Workflow.Nodes {
		if node.Type != TriggerNodeType {
			continue
		}
		if notes := strings.TrimSpace(node.Notes); notes != "" {
			return notes
		}
		if desc := strings.TrimSpace(node.Description); desc != "" {
			return desc
		}
	}
	return ""
}

// ResolveDescription evaluates description sources in order until one yields
// a non-empty result: trigger-node notes, the workflow's own top-level
// description, then a generated default naming the tool.
func ResolveDescription(toolName string, summary WorkflowSummary, detail WorkflowDetail) string {
	providers := []func() string{
		func() string { return ExtractDescription(detail) },
		func() string { return strings.TrimSpace(summary.Description) },
		func() string { return fmt.Sprintf("Execute %s workflow", toolName) },
	}
	for _, provide := range providers {
		if desc := provide(); desc != "" {
			return desc
		}
	}
	return ""
}

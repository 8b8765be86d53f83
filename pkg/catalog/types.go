package catalog

// TriggerNodeType is the workflow-graph node type that receives webhook
// invocations. Its notes field doubles as the tool description.
const TriggerNodeType = "n8n-nodes-base.webhook"

// Remote procedure names exposed by the automation server.
const (
	procSearchWorkflows    = "search_workflows"
	procGetWorkflowDetails = "get_workflow_details"
)

// WorkflowSummary is the identity and display info for a discoverable
// workflow, as returned by the catalog listing call. The name is a human
// display name and is not guaranteed to be a valid tool name.
type WorkflowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// workflowList is the payload shape of the search_workflows procedure.
type workflowList struct {
	Data  []WorkflowSummary `json:"data"`
	Count int               `json:"count"`
}

// WorkflowDetail is the full remote definition of one workflow.
// Only the node list matters here; everything else the server sends
// is ignored.
type WorkflowDetail struct {
	Workflow struct {
		Nodes []WorkflowNode `json:"nodes"`
	} `json:"workflow"`
}

// WorkflowNode is a single node in a workflow graph.
type WorkflowNode struct {
	Type        string `json:"type"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
}

// Definition is the externally-visible tool contract handed to the language
// model runtime. Parameters for workflow tools are deliberately
// unconstrained: the workflow's true parameter contract exists only in its
// natural-language description.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// NameMap maps a sanitized tool name back to the original workflow name.
// The language model only ever sees sanitized names, so this binding is
// required to recover which workflow to execute.
type NameMap map[string]string

// OpenParameters returns the parameter schema used for workflow tools:
// an object accepting arbitrary key/value pairs.
func OpenParameters() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
	}
}

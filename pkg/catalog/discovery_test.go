package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockCaller implements ToolCaller with canned responses per procedure.
type mockCaller struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (m *mockCaller) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	m.mu.Lock()
	key := name
	if id, ok := args["workflowId"].(string); ok {
		key = name + ":" + id
	}
	m.calls = append(m.calls, key)
	m.mu.Unlock()

	if err, ok := m.errs[key]; ok {
		return "", err
	}
	return m.responses[key], nil
}

func (m *mockCaller) Close() error { return nil }

func (m *mockCaller) callCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == key {
			n++
		}
	}
	return n
}

const listPayload = `{"data":[{"id":"1","name":"test_workflow"},{"id":"2","name":"another_workflow"}],"count":2}`

func detailPayload(notes string) string {
	return `{"workflow":{"nodes":[{"type":"` + TriggerNodeType + `","notes":"` + notes + `"}]}}`
}

func newTestDiscoverer(caller ToolCaller) *Discoverer {
	return NewDiscoverer(caller, NewDetailCache(time.Hour), nil)
}

func TestDiscoverProducesTools(t *testing.T) {
	caller := &mockCaller{
		responses: map[string]string{
			"search_workflows":        listPayload,
			"get_workflow_details:1":  detailPayload("does thing one"),
			"get_workflow_details:2":  detailPayload("does thing two"),
		},
	}

	defs, names := newTestDiscoverer(caller).Discover(context.Background())

	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "test_workflow" || defs[1].Name != "another_workflow" {
		t.Errorf("unexpected tool names: %q, %q", defs[0].Name, defs[1].Name)
	}
	if defs[0].Description != "does thing one" {
		t.Errorf("unexpected description: %q", defs[0].Description)
	}
	if len(names) != 2 {
		t.Fatalf("expected name map of size 2, got %d", len(names))
	}
	if names["test_workflow"] != "test_workflow" || names["another_workflow"] != "another_workflow" {
		t.Errorf("unexpected name map: %v", names)
	}
	if defs[0].Parameters["additionalProperties"] != true {
		t.Errorf("workflow tools must accept arbitrary parameters: %v", defs[0].Parameters)
	}
}

func TestDiscoverCatalogUnreachable(t *testing.T) {
	caller := &mockCaller{
		errs: map[string]error{"search_workflows": errors.New("connection refused")},
	}

	defs, names := newTestDiscoverer(caller).Discover(context.Background())

	if len(defs) != 0 {
		t.Errorf("expected zero tools when catalog unreachable, got %d", len(defs))
	}
	if len(names) != 0 {
		t.Errorf("expected empty name map, got %v", names)
	}
}

func TestDiscoverMalformedListing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"plain text", "workflow service is restarting"},
		{"missing data", `{"count":0}`},
		{"wrong data type", `{"data":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &mockCaller{responses: map[string]string{"search_workflows": tt.payload}}
			defs, _ := newTestDiscoverer(caller).Discover(context.Background())
			if len(defs) != 0 {
				t.Errorf("expected zero tools for payload %q, got %d", tt.payload, len(defs))
			}
		})
	}
}

func TestDiscoverDetailFailureDegradesOneWorkflow(t *testing.T) {
	caller := &mockCaller{
		responses: map[string]string{
			"search_workflows":       `{"data":[{"id":"1","name":"Broken Flow"},{"id":"2","name":"Good Flow"}],"count":2}`,
			"get_workflow_details:2": detailPayload("documented"),
		},
		errs: map[string]error{
			"get_workflow_details:1": errors.New("timeout"),
		},
	}

	defs, names := newTestDiscoverer(caller).Discover(context.Background())

	if len(defs) != 2 {
		t.Fatalf("detail failure aborted discovery: got %d definitions", len(defs))
	}
	if defs[0].Description != "Execute broken_flow workflow" {
		t.Errorf("expected generated fallback description, got %q", defs[0].Description)
	}
	if defs[1].Description != "documented" {
		t.Errorf("healthy workflow affected by sibling failure: %q", defs[1].Description)
	}
	if names["broken_flow"] != "Broken Flow" {
		t.Errorf("name map missing degraded workflow: %v", names)
	}
}

func TestDiscoverRootDescriptionFallback(t *testing.T) {
	caller := &mockCaller{
		responses: map[string]string{
			"search_workflows":       `{"data":[{"id":"1","name":"flow","description":"root level"}],"count":1}`,
			"get_workflow_details:1": `{"workflow":{"nodes":[{"type":"` + TriggerNodeType + `"}]}}`,
		},
	}

	defs, _ := newTestDiscoverer(caller).Discover(context.Background())

	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].Description != "root level" {
		t.Errorf("expected root description fallback, got %q", defs[0].Description)
	}
}

func TestDiscoverUsesCache(t *testing.T) {
	caller := &mockCaller{
		responses: map[string]string{
			"search_workflows":       `{"data":[{"id":"1","name":"flow"}],"count":1}`,
			"get_workflow_details:1": detailPayload("cached description"),
		},
	}

	disc := newTestDiscoverer(caller)
	disc.Discover(context.Background())
	disc.Discover(context.Background())

	if n := caller.callCount("get_workflow_details:1"); n != 1 {
		t.Errorf("expected 1 detail fetch across passes, got %d", n)
	}

	// A manual clear makes the next pass fetch again.
	disc.Cache().Clear()
	disc.Discover(context.Background())
	if n := caller.callCount("get_workflow_details:1"); n != 2 {
		t.Errorf("expected refetch after Clear, got %d fetches", n)
	}
}

func TestDiscoverNameCollision(t *testing.T) {
	caller := &mockCaller{
		responses: map[string]string{
			"search_workflows": `{"data":[{"id":"1","name":"My Flow"},{"id":"2","name":"my-flow"}],"count":2}`,
		},
		errs: map[string]error{
			"get_workflow_details:1": errors.New("skip"),
			"get_workflow_details:2": errors.New("skip"),
		},
	}

	defs, names := newTestDiscoverer(caller).Discover(context.Background())

	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "my_flow" || defs[1].Name != "my_flow_2" {
		t.Errorf("collision not disambiguated: %q, %q", defs[0].Name, defs[1].Name)
	}
	if names["my_flow"] != "My Flow" || names["my_flow_2"] != "my-flow" {
		t.Errorf("name map lost a colliding workflow: %v", names)
	}
}

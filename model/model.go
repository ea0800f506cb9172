package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/recallmesh/core"
)

// ToolCall is a function call request surfaced by a model provider, unified
// across vendors so downstream logic needs no per-provider branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON object of arguments
}

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures one inference round: the current memory log plus the tool
// schema surface.
type Request struct {
	Turns []core.Turn      `json:"turns"`
	Tools []ToolDefinition `json:"tools,omitempty"`
}

// Response is the outcome of one inference round. When ToolCalls is
// non-empty the Content (if any) is not a final answer; the caller must
// execute the calls and re-invoke.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the dispatch loop requires. Generate blocks
// until the provider answers or ctx is done.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are consumed in FIFO order; every received request is recorded
// for assertions.
type MockModel struct {
	info     Info
	scripted []*Response
	Requests []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// Enqueue appends a canned response to the script.
func (m *MockModel) Enqueue(resp *Response) { m.scripted = append(m.scripted, resp) }

// EnqueueText appends a canned final text response.
func (m *MockModel) EnqueueText(text string) { m.Enqueue(&Response{Content: text}) }

// EnqueueToolCall appends a canned single tool call response with JSON
// encoded arguments.
func (m *MockModel) EnqueueToolCall(name string, args map[string]any) {
	raw, _ := json.Marshal(args)
	m.Enqueue(&Response{ToolCalls: []ToolCall{{ID: core.NewID(), Name: name, Arguments: raw}}})
}

// Generate implements Model; it pops the next scripted response or echoes
// the last user turn when the script is exhausted.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.Requests = append(m.Requests, req)

	if len(m.scripted) > 0 {
		resp := m.scripted[0]
		m.scripted = m.scripted[1:]
		return resp, nil
	}

	var lastUser string
	for _, t := range req.Turns {
		if t.Role == core.RoleUser {
			lastUser = t.Content
		}
	}
	return &Response{Content: fmt.Sprintf("Mock response to: %s", lastUser)}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

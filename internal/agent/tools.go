// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Handler executes one tool call. It receives the session state so tools
// can reach the open workspace, and the parsed arguments.
type Handler func(ctx context.Context, state *State, args map[string]any) (any, error)

// Tool is one registered operation the model may request.
type Tool struct {
	Name        string
	Description string
	// Schema is a JSON-schema-shaped parameter contract:
	// {"type": "object", "properties": {...}, "required": [...]}.
	Schema map[string]any
	// DefaultArgs, when non-nil, supplies fallback arguments for a
	// malformed arguments payload instead of failing the call.
	DefaultArgs func(state *State) map[string]any
	Handler     Handler
}

// Registry holds tools in insertion order for deterministic prompt
// serialization, and by name for dispatch. Duplicate registration
// overwrites silently, keeping the original position.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register stores a tool by name, silently overwriting any existing tool
// with the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the provider-facing tool definitions in
// registration order.
func (r *Registry) Definitions() []provider.ToolDefinition {
	out := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, provider.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}
	return out
}

// PromptBlock serializes the registry for inclusion in the system prompt:
// each tool's name, description, and parameter schema.
func (r *Registry) PromptBlock() string {
	if len(r.order) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, name := range r.order {
		t := r.tools[name]
		schema, err := json.Marshal(t.Schema)
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s: %s\n  parameters: %s\n", t.Name, t.Description, schema)
	}
	return b.String()
}

// Invoke parses argsJSON and runs the named tool's handler, returning the
// result serialized for a tool message. A malformed arguments payload
// falls back to the tool's DefaultArgs when it has one, otherwise to
// empty arguments. An unregistered name is a contract violation and
// returns CodeAgentToolNotFound; handler failures return
// CodeAgentToolExecFailure for the caller to capture into the
// conversation.
func (r *Registry) Invoke(ctx context.Context, state *State, name, argsJSON string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", arguserr.New(arguserr.CodeAgentToolNotFound,
			"tool not registered: "+name, arguserr.FieldTool(name))
	}

	args := map[string]any{}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			if t.DefaultArgs != nil {
				args = t.DefaultArgs(state)
			} else {
				args = map[string]any{}
			}
		}
	}

	result, err := t.Handler(ctx, state, args)
	if err != nil {
		return "", arguserr.Wrap(err, arguserr.CodeAgentToolExecFailure,
			"tool execution failed", arguserr.FieldTool(name))
	}

	return serializeResult(result)
}

// serializeResult renders a handler result as tool message content:
// strings pass through, everything else is JSON-encoded.
func serializeResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", arguserr.Wrapf(err, arguserr.CodeAgentToolExecFailure, "serializing tool result")
		}
		return string(data), nil
	}
}

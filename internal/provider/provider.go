// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package provider defines the uniform call contract for LLM backends and
// the failover machinery that keeps the assistant working when one of them
// goes away.
package provider

import (
	"context"
	"time"

	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Kind identifies a backend vendor. It is a closed set: the factory, the
// availability checker, and the failover resolver all dispatch on it, so a
// new backend means touching those three places, not scattering string
// comparisons around the codebase.
type Kind string

const (
	KindAnthropic Kind = "anthropic"
	KindOpenAI    Kind = "openai"
	KindGoogle    Kind = "google"
	KindOllama    Kind = "ollama"
)

// Valid reports whether the kind is a known backend vendor.
func (k Kind) Valid() bool {
	switch k {
	case KindAnthropic, KindOpenAI, KindGoogle, KindOllama:
		return true
	default:
		return false
	}
}

// ParseKind parses a kind string from configuration.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", arguserr.Errorf(arguserr.CodeProviderUnknownKind, "unknown provider kind %q", s)
	}
	return k, nil
}

// DefaultChain is the static failover preference order. The local backend
// goes last: it is always reachable in the trivial sense but slowest and
// least capable, so it is a last resort rather than a first choice.
func DefaultChain() []Kind {
	return []Kind{KindAnthropic, KindOpenAI, KindGoogle, KindOllama}
}

// Timeout defaults. Local inference can legitimately take minutes, so the
// local backend gets a far longer deadline than the remote vendors.
const (
	DefaultRemoteTimeout = 30 * time.Second
	DefaultLocalTimeout  = 15 * time.Minute

	// ProbeTimeout bounds the reachability probe used by the availability
	// check for local backends.
	ProbeTimeout = 2 * time.Second
)

// Provider is the uniform capability every backend implements: one
// conversational exchange given a message history and a system instruction.
type Provider interface {
	Name() string
	Kind() Kind
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Close() error
}

// ChatRequest carries one exchange's inputs to a backend.
type ChatRequest struct {
	Model        string
	Messages     []Message
	SystemPrompt string
	Tools        []ToolDefinition
	MaxTokens    int
}

// ChatResponse is a backend's reply: final text, zero or more tool calls,
// and token usage when the backend reports it.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *Usage
}

// Role defines the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a conversation message. A tool message must carry the
// ToolCallID of the request it answers; an assistant message with tool
// calls may have empty content pending the results.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolCall represents a tool invocation requested by the model. ID links
// the eventual tool-role result message back to this request.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Usage tracks token consumption for one exchange.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

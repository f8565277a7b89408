// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package ollama_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/provider/ollama"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// wireMessage mirrors the /api/chat message shape for request assertions.
type wireMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ToolName  string `json:"tool_name"`
	ToolCalls []struct {
		Function struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

func newCapturingServer(t *testing.T, reply string) (*httptest.Server, *[]wireMessage) {
	t.Helper()

	var captured []wireMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Messages []wireMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		captured = req.Messages

		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(ts.Close)

	return ts, &captured
}

func TestChatRoundTrip(t *testing.T) {
	ts, captured := newCapturingServer(t,
		`{"message": {"role": "assistant", "content": "looks clean"}, "done": true, "prompt_eval_count": 12, "eval_count": 7}`)

	p, err := ollama.New(provider.Config{Endpoint: ts.URL})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), provider.ChatRequest{
		Model:        "llama3.1",
		SystemPrompt: "be brief",
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: "is this file safe?"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "looks clean", resp.Content)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)

	msgs := *captured
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
}

func TestHistoryCarriesToolExchange(t *testing.T) {
	// A replayed tool exchange must keep the assistant's tool_calls and
	// name the tool on the result message, or the model cannot tell which
	// call a result answers.
	ts, captured := newCapturingServer(t,
		`{"message": {"role": "assistant", "content": "fixed"}, "done": true}`)

	p, err := ollama.New(provider.Config{Endpoint: ts.URL})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), provider.ChatRequest{
		Model: "llama3.1",
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: "scan it"},
			{
				Role: provider.RoleAssistant,
				ToolCalls: []provider.ToolCall{
					{ID: "call_1", Name: "scan_workspace", Arguments: `{"min_severity":"high"}`},
				},
			},
			{
				Role:       provider.RoleTool,
				Content:    `{"count":0}`,
				ToolCallID: "call_1",
				ToolName:   "scan_workspace",
			},
		},
	})
	require.NoError(t, err)

	msgs := *captured
	require.Len(t, msgs, 3)

	assistant := msgs[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "scan_workspace", assistant.ToolCalls[0].Function.Name)
	assert.Equal(t, map[string]any{"min_severity": "high"}, assistant.ToolCalls[0].Function.Arguments)

	result := msgs[2]
	assert.Equal(t, "tool", result.Role)
	assert.Equal(t, "scan_workspace", result.ToolName)
}

func TestSynthesizedToolCallIDs(t *testing.T) {
	ts, _ := newCapturingServer(t,
		`{"message": {"role": "assistant", "content": "", "tool_calls": [{"function": {"name": "read_file", "arguments": {"path": "main.go"}}}]}, "done": true}`)

	p, err := ollama.New(provider.Config{Endpoint: ts.URL})
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), provider.ChatRequest{
		Model:    "llama3.1",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "read it"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "read_file", resp.ToolCalls[0].Name)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[0].ID, "call_"))
	assert.JSONEq(t, `{"path": "main.go"}`, resp.ToolCalls[0].Arguments)
}

func TestUpstreamErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "model not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	p, err := ollama.New(provider.Config{Endpoint: ts.URL})
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), provider.ChatRequest{
		Model:    "missing",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.True(t, arguserr.HasCode(err, arguserr.CodeProviderUpstreamFailure))
	assert.Contains(t, err.Error(), "model not found")
}

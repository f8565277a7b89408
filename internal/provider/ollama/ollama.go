// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package ollama implements the local-backend provider against the Ollama
// HTTP API. There is no vendor SDK; the wire format is small enough that a
// plain net/http client is the whole integration.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Provider implements provider.Provider for a locally running Ollama
// service. Local inference can be slow, so the client timeout defaults to
// provider.DefaultLocalTimeout rather than the remote default.
type Provider struct {
	endpoint string
	client   *http.Client
}

// New creates a new Ollama provider.
func New(cfg provider.Config) (*Provider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = provider.DefaultEndpoint(provider.KindOllama)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultLocalTimeout
	}

	return &Provider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *Provider) Name() string        { return "Ollama (local)" }
func (p *Provider) Kind() provider.Kind { return provider.KindOllama }
func (p *Provider) Close() error        { return nil }

// chatRequest is the request body for the Ollama /api/chat endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []toolParam   `json:"tools,omitempty"`
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolName  string     `json:"tool_name,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolParam struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type toolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	PromptEval int         `json:"prompt_eval_count"`
	EvalCount  int         `json:"eval_count"`
	Error      string      `json:"error"`
}

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, arguserr.Wrapf(err, arguserr.CodeProviderRequestInvalid, "ollama: encoding request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, arguserr.Wrapf(err, arguserr.CodeProviderRequestInvalid, "ollama: building request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeProviderUpstreamFailure,
			"ollama: chat call failed", arguserr.FieldProvider("ollama"))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeProviderUpstreamFailure,
			"ollama: reading response", arguserr.FieldProvider("ollama"))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, arguserr.New(arguserr.CodeProviderUpstreamFailure,
			fmt.Sprintf("ollama: HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(respBody))),
			arguserr.FieldProvider("ollama"))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeProviderResponseInvalid,
			"ollama: decoding response", arguserr.FieldProvider("ollama"))
	}
	if parsed.Error != "" {
		return nil, arguserr.New(arguserr.CodeProviderUpstreamFailure,
			"ollama: "+parsed.Error, arguserr.FieldProvider("ollama"))
	}

	return convertResponse(parsed)
}

func buildRequest(req provider.ChatRequest) chatRequest {
	out := chatRequest{
		Model:  req.Model,
		Stream: false,
	}

	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case provider.RoleTool:
			out.Messages = append(out.Messages, chatMessage{
				Role:     "tool",
				Content:  msg.Content,
				ToolName: msg.ToolName,
			})
		case provider.RoleAssistant:
			out.Messages = append(out.Messages, chatMessage{
				Role:      "assistant",
				Content:   msg.Content,
				ToolCalls: historyToolCalls(msg.ToolCalls),
			})
		default:
			out.Messages = append(out.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, toolParam{
			Type: "function",
			Function: toolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	return out
}

// historyToolCalls re-encodes prior assistant tool calls for replay. The
// Ollama wire format has no call ids; the tool_name on result messages is
// what correlates a result with its call.
func historyToolCalls(calls []provider.ToolCall) []toolCall {
	if len(calls) == 0 {
		return nil
	}

	out := make([]toolCall, 0, len(calls))
	for _, tc := range calls {
		var converted toolCall
		converted.Function.Name = tc.Name
		if err := json.Unmarshal([]byte(tc.Arguments), &converted.Function.Arguments); err != nil {
			converted.Function.Arguments = map[string]any{}
		}
		out = append(out, converted)
	}
	return out
}

// convertResponse maps the Ollama reply into a provider.ChatResponse.
// Ollama does not assign tool call ids, so each call gets a synthesized
// one to keep result correlation working downstream.
func convertResponse(parsed chatResponse) (*provider.ChatResponse, error) {
	resp := &provider.ChatResponse{
		Content: parsed.Message.Content,
		Usage: &provider.Usage{
			InputTokens:  parsed.PromptEval,
			OutputTokens: parsed.EvalCount,
		},
	}

	for _, tc := range parsed.Message.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			return nil, arguserr.Wrapf(err, arguserr.CodeProviderResponseInvalid,
				"ollama: marshaling tool call arguments for %q", tc.Function.Name)
		}
		resp.ToolCalls = append(resp.ToolCalls, provider.ToolCall{
			ID:        provider.NewToolCallID(),
			Name:      tc.Function.Name,
			Arguments: string(args),
		})
	}

	return resp, nil
}

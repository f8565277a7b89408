// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package google

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Provider implements provider.Provider using the Google Gemini API.
type Provider struct {
	client *genai.Client
	config provider.Config
}

// New creates a new Google provider. Returns an error if the API key is missing.
func New(cfg provider.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, arguserr.New(arguserr.CodeProviderNotConfigured,
			"google: missing api key", arguserr.FieldProvider("google"))
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, arguserr.Wrapf(err, arguserr.CodeProviderUpstreamFailure, "google: creating client")
	}

	return &Provider{
		client: client,
		config: cfg,
	}, nil
}

func (p *Provider) Name() string        { return "Google Gemini" }
func (p *Provider) Kind() provider.Kind { return provider.KindGoogle }
func (p *Provider) Close() error        { return nil }

func (p *Provider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, arguserr.Wrapf(err, arguserr.CodeProviderRequestInvalid, "google: converting messages")
	}

	result, err := p.client.Models.GenerateContent(ctx, req.Model, contents, buildConfig(req))
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeProviderUpstreamFailure,
			"google: generate content failed", arguserr.FieldProvider("google"))
	}

	return convertResponse(result)
}

// buildConfig converts a provider.ChatRequest into a genai.GenerateContentConfig.
func buildConfig(req provider.ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.SystemPrompt},
			},
		}
	}

	if len(req.Tools) > 0 {
		cfg.Tools = convertTools(req.Tools)
	}

	return cfg
}

// convertMessages transforms provider.Message slices into genai.Content
// slices. System messages are excluded (handled via SystemInstruction);
// tool results become FunctionResponse parts on user-role content.
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		switch msg.Role {
		case provider.RoleUser:
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		case provider.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: args,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			result = append(result, &genai.Content{Role: "model", Parts: parts})
		case provider.RoleTool:
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{
					{
						FunctionResponse: &genai.FunctionResponse{
							ID:       msg.ToolCallID,
							Name:     msg.ToolName,
							Response: map[string]any{"result": msg.Content},
						},
					},
				},
			})
		case provider.RoleSystem:
			continue
		default:
			return nil, arguserr.Errorf(arguserr.CodeProviderRequestInvalid,
				"google: unsupported message role %q", msg.Role)
		}
	}

	return result, nil
}

// convertTools transforms provider.ToolDefinition slices into genai.Tool slices.
func convertTools(tools []provider.ToolDefinition) []*genai.Tool {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema,
		})
	}
	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

// convertResponse flattens the first candidate's parts into a
// provider.ChatResponse. Gemini does not always assign function call ids,
// so missing ids are synthesized to keep the tool-result correlation
// invariant intact.
func convertResponse(result *genai.GenerateContentResponse) (*provider.ChatResponse, error) {
	resp := &provider.ChatResponse{}

	if result.UsageMetadata != nil {
		resp.Usage = &provider.Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
		}
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				resp.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, arguserr.Wrapf(err, arguserr.CodeProviderResponseInvalid,
						"google: marshaling tool call arguments for %q", part.FunctionCall.Name)
				}
				id := part.FunctionCall.ID
				if id == "" {
					id = provider.NewToolCallID()
				}
				resp.ToolCalls = append(resp.ToolCalls, provider.ToolCall{
					ID:        id,
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				})
			}
		}
	}

	return resp, nil
}

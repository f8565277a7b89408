// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package agent implements the conversation orchestrator: a bounded
// model/tool loop with an intent shortcut layer that keeps the scan
// operation working even when no model backend is reachable, and
// transparent provider failover driven by error classification.
package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/scanner"
	"github.com/argus-dev/argus/internal/workspace"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// DefaultMaxIterations caps model calls per user request. A model can
// loop indefinitely requesting tools; hitting the cap is a safety valve,
// not an error.
const DefaultMaxIterations = 20

// DefaultSystemPrompt is the fixed behavioral instruction block. The
// serialized tool registry is appended to it per session.
const DefaultSystemPrompt = "You are Argus, a security assistant. You help developers find and fix " +
	"security problems in their code. Use the available tools to inspect the workspace " +
	"before answering questions about it. Be direct and concrete; cite file paths and " +
	"line numbers from tool results. If a scan reports findings, prioritize critical " +
	"and high severity issues."

// incompleteMessage is returned when the iteration bound is reached with
// no textual content produced.
const incompleteMessage = "I couldn't finish processing this request within the allowed number of steps. Try narrowing the request."

// ProviderFactory constructs a concrete provider for one call attempt.
type ProviderFactory func(kind provider.Kind, cfg provider.Config) (provider.Provider, error)

// Config holds the orchestrator's dependencies, resolved once at
// construction rather than re-read mid-call.
type Config struct {
	Registry *Registry
	Scanner  *scanner.Runner
	Settings provider.Settings
	Resolver *provider.Resolver
	Factory  ProviderFactory
	Notifier Notifier
	Logger   *slog.Logger

	Primary      provider.Kind
	Model        string
	SystemPrompt string

	MaxIterations   int
	MaxTokens       int
	FailoverEnabled bool
	ShortcutTimeout time.Duration
}

// Orchestrator drives one agent session: Idle → AwaitingModel →
// {ExecutingTools → AwaitingModel}* → Done. Single-threaded per session;
// one request runs to completion before the next is accepted.
type Orchestrator struct {
	registry *Registry
	scanner  *scanner.Runner
	settings provider.Settings
	resolver *provider.Resolver
	factory  ProviderFactory
	notifier Notifier
	logger   *slog.Logger

	primary      provider.Kind
	model        string
	systemPrompt string

	maxIterations   int
	maxTokens       int
	failoverEnabled bool
	shortcutTimeout time.Duration

	state *State
}

// New creates an Orchestrator with a fresh session state.
func New(cfg Config) *Orchestrator {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.ShortcutTimeout <= 0 {
		cfg.ShortcutTimeout = DefaultShortcutTimeout
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Primary == "" {
		cfg.Primary = provider.DefaultChain()[0]
	}

	return &Orchestrator{
		registry:        cfg.Registry,
		scanner:         cfg.Scanner,
		settings:        cfg.Settings,
		resolver:        cfg.Resolver,
		factory:         cfg.Factory,
		notifier:        cfg.Notifier,
		logger:          cfg.Logger,
		primary:         cfg.Primary,
		model:           cfg.Model,
		systemPrompt:    cfg.SystemPrompt,
		maxIterations:   cfg.MaxIterations,
		maxTokens:       cfg.MaxTokens,
		failoverEnabled: cfg.FailoverEnabled,
		shortcutTimeout: cfg.ShortcutTimeout,
		state:           NewState(),
	}
}

// State exposes the session state.
func (o *Orchestrator) State() *State { return o.state }

// OpenWorkspace attaches a workspace directory to the session.
func (o *Orchestrator) OpenWorkspace(path string) error {
	ws, err := workspace.Open(path)
	if err != nil {
		return err
	}
	o.state.SetWorkspace(ws)
	return nil
}

// RetryPending re-runs a request that was deferred on a missing
// precondition. Returns retried=false when nothing was pending. The
// pending slot is cleared before the retry, so a second failure defers
// the request again rather than looping.
func (o *Orchestrator) RetryPending(ctx context.Context) (answer string, retried bool, err error) {
	req, ok := o.state.TakePending()
	if !ok {
		return "", false, nil
	}
	answer, err = o.ProcessRequest(ctx, req)
	return answer, true, err
}

// ProcessRequest handles one user request to completion: shortcut path,
// or the bounded model/tool loop. Provider failures, tool failures, and
// the iteration bound all resolve to a user-facing message; the only
// error returned is a contract violation (empty input, unregistered tool
// name).
func (o *Orchestrator) ProcessRequest(ctx context.Context, request string) (string, error) {
	if strings.TrimSpace(request) == "" {
		return "", arguserr.New(arguserr.CodeAgentLoopInvalidInput, "empty request")
	}

	o.notifier.Started()

	if isShortcutRequest(request) {
		return o.runShortcut(ctx, request)
	}
	return o.runModelLoop(ctx, request)
}

// runShortcut executes the scan directly, never touching a provider. A
// missing workspace produces guidance and defers the request instead of
// failing.
func (o *Orchestrator) runShortcut(ctx context.Context, request string) (string, error) {
	o.state.Append(provider.Message{Role: provider.RoleUser, Content: request})

	ws := o.state.Workspace()
	if ws == nil {
		o.state.SetPending(request)
		return o.finish(workspaceGuidance), nil
	}

	o.notifier.Progress("scanning workspace")

	scanCtx, cancel := context.WithTimeout(ctx, o.shortcutTimeout)
	defer cancel()

	report, err := o.scanner.Run(scanCtx, ws, scanner.Options{})
	if err != nil {
		o.logger.Error("shortcut scan failed", "error", err)
		return o.finish("The scan could not be completed: " + err.Error() + "."), nil
	}

	return o.finish(formatScanSummary(report)), nil
}

// runModelLoop is the AwaitingModel/ExecutingTools cycle.
func (o *Orchestrator) runModelLoop(ctx context.Context, request string) (string, error) {
	o.state.Append(provider.Message{Role: provider.RoleUser, Content: request})

	lastText := ""
	for iteration := 0; iteration < o.maxIterations; iteration++ {
		o.notifier.Progress("thinking")

		resp, err := o.callWithFailover(ctx)
		if err != nil {
			o.logger.Error("provider resolution failed", "error", err)
			return o.finish(failureMessage(err)), nil
		}

		o.state.Append(provider.Message{
			Role:      provider.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Content != "" {
			lastText = resp.Content
		}

		if len(resp.ToolCalls) == 0 {
			return o.deliver(resp.Content), nil
		}

		o.notifier.Progress("running tools")
		if err := o.executeToolBatch(ctx, resp.ToolCalls); err != nil {
			return "", err
		}
	}

	o.logger.Warn("iteration bound reached", "max_iterations", o.maxIterations)
	if lastText == "" {
		return o.finish(incompleteMessage), nil
	}
	return o.deliver(lastText), nil
}

// executeToolBatch dispatches one turn's tool calls in order, appending
// exactly one tool message per call. Handler failures become "error: ..."
// tool content; only an unregistered tool name propagates, since that is
// a defect, not a runtime condition.
func (o *Orchestrator) executeToolBatch(ctx context.Context, calls []provider.ToolCall) error {
	for _, tc := range calls {
		content, err := o.registry.Invoke(ctx, o.state, tc.Name, tc.Arguments)
		if err != nil {
			if arguserr.HasCode(err, arguserr.CodeAgentToolNotFound) {
				return err
			}
			o.logger.Warn("tool call failed", "tool", tc.Name, "error", err)
			content = "error: " + err.Error()
		}
		o.state.Append(provider.Message{
			Role:       provider.RoleTool,
			Content:    content,
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
		})
	}
	return nil
}

// callWithFailover performs one model exchange, walking the failover
// chain as an explicit loop. The attempted set grows by one kind per
// pass, which bounds the whole resolution to the chain length.
func (o *Orchestrator) callWithFailover(ctx context.Context) (*provider.ChatResponse, error) {
	attempted := map[provider.Kind]bool{}
	kind := o.primary
	model := o.modelFor(kind)

	var lastErr error
	for {
		resp, err := o.callOnce(ctx, kind, model)
		if err == nil {
			return resp, nil
		}

		attempted[kind] = true
		class := provider.Classify(err)
		lastErr = err
		o.logger.Warn("provider call failed",
			"provider", string(kind), "classification", string(class))

		// An unconfigured backend never worked to begin with; skipping
		// past it is failover in the same sense as a credit failure.
		eligible := provider.ShouldFailover(class) ||
			arguserr.HasCode(err, arguserr.CodeProviderNotConfigured)
		if !o.failoverEnabled || !eligible {
			return nil, lastErr
		}

		next, ok := o.resolver.NextAvailable(ctx, kind, attempted)
		if !ok {
			return nil, arguserr.Wrap(lastErr, arguserr.CodeProviderChainExhausted,
				"every provider in the chain failed or was unavailable")
		}

		o.notifier.Progress("switching to " + string(next.Kind))
		kind = next.Kind
		model = next.Model
	}
}

// callOnce builds a provider for one attempt and performs a single
// blocking exchange under the kind's timeout.
func (o *Orchestrator) callOnce(ctx context.Context, kind provider.Kind, model string) (*provider.ChatResponse, error) {
	cfg := o.settings[kind]
	cfg.Timeout = o.settings.TimeoutFor(kind)

	prov, err := o.factory(kind, cfg)
	if err != nil {
		return nil, err
	}
	defer prov.Close()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	return prov.Chat(callCtx, provider.ChatRequest{
		Model:        model,
		Messages:     o.state.Conversation(),
		SystemPrompt: o.fullSystemPrompt(),
		Tools:        o.registry.Definitions(),
		MaxTokens:    o.maxTokens,
	})
}

// fullSystemPrompt is the fixed instructions plus the serialized tool
// registry.
func (o *Orchestrator) fullSystemPrompt() string {
	block := o.registry.PromptBlock()
	if block == "" {
		return o.systemPrompt
	}
	return o.systemPrompt + "\n\n" + block
}

// modelFor resolves the model for a kind: explicit session model for the
// primary, then the configured override, then the built-in default.
func (o *Orchestrator) modelFor(kind provider.Kind) string {
	if kind == o.primary && o.model != "" {
		return o.model
	}
	if cfg, ok := o.settings[kind]; ok && cfg.Model != "" {
		return cfg.Model
	}
	if models := provider.DefaultModels(kind); len(models) > 0 {
		return models[0]
	}
	return ""
}

// finish records the final message as an assistant turn and delivers it.
// For answers the provider produced, the turn is already in the
// conversation; those paths use deliver instead, so the history carries
// each assistant reply exactly once.
func (o *Orchestrator) finish(content string) string {
	o.state.Append(provider.Message{Role: provider.RoleAssistant, Content: content})
	return o.deliver(content)
}

// deliver notifies the final message without touching the conversation.
func (o *Orchestrator) deliver(content string) string {
	o.notifier.Clear()
	o.notifier.Final(content)
	return content
}

// failureMessage turns a classified provider failure into the user-facing
// answer, with a remediation hint keyed by classification.
func failureMessage(err error) string {
	class := provider.Classify(err)

	var b strings.Builder
	if arguserr.HasCode(err, arguserr.CodeProviderChainExhausted) {
		b.WriteString("I tried every configured model backend without success. ")
	} else {
		b.WriteString("The model backend request failed. ")
	}

	switch class {
	case provider.ClassCreditExhausted:
		b.WriteString("The provider reported exhausted credit.")
	case provider.ClassAuthInvalid:
		b.WriteString("The provider rejected the configured credentials.")
	case provider.ClassRateLimited:
		b.WriteString("The provider is rate limiting requests.")
	default:
		b.WriteString("Reason: " + err.Error() + ".")
	}

	if hint := provider.RemediationHint(class); hint != "" {
		b.WriteString(" Suggestion: " + hint + ".")
	}
	return b.String()
}

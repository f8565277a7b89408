// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-dev/argus/internal/provider"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

func TestPlainTextAnswer(t *testing.T) {
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: {kind: provider.KindAnthropic, script: []scriptStep{
			textResponse("hello there"),
		}},
	}}
	o, notifier := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "tell me about XSS")
	require.NoError(t, err)
	assert.Equal(t, "hello there", answer)
	assert.Equal(t, 1, notifier.started)
	assert.Equal(t, []string{"hello there"}, notifier.finals)
}

func TestFinalAnswerRecordedOnce(t *testing.T) {
	// The provider's reply is appended when it arrives; delivery must not
	// append it a second time, or every later turn replays a doubled
	// assistant message.
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		textResponse("final answer"),
		textResponse("second answer"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})

	_, err := o.ProcessRequest(context.Background(), "first question")
	require.NoError(t, err)

	var assistants []string
	for _, msg := range o.State().Conversation() {
		if msg.Role == provider.RoleAssistant {
			assistants = append(assistants, msg.Content)
		}
	}
	assert.Equal(t, []string{"final answer"}, assistants)

	_, err = o.ProcessRequest(context.Background(), "second question")
	require.NoError(t, err)

	require.Len(t, prov.requests, 2)
	copies := 0
	for _, msg := range prov.requests[1].Messages {
		if msg.Role == provider.RoleAssistant && msg.Content == "final answer" {
			copies++
		}
	}
	assert.Equal(t, 1, copies)
}

func TestEmptyRequestRejected(t *testing.T) {
	o, _ := testOrchestrator(t, &testFactory{}, provider.Settings{})

	_, err := o.ProcessRequest(context.Background(), "   ")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeAgentLoopInvalidInput))
}

func TestToolBatchAppendsOneMessagePerCall(t *testing.T) {
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		toolResponse(
			provider.ToolCall{ID: "call_1", Name: "echo", Arguments: `{"text":"first"}`},
			provider.ToolCall{ID: "call_2", Name: "echo", Arguments: `{"text":"second"}`},
		),
		textResponse("done"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})

	o.registry.Register(Tool{
		Name:        "echo",
		Description: "echoes its argument",
		Schema:      map[string]any{"type": "object"},
		Handler: func(_ context.Context, _ *State, args map[string]any) (any, error) {
			return args["text"], nil
		},
	})

	answer, err := o.ProcessRequest(context.Background(), "run both")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	var toolMsgs []provider.Message
	for _, msg := range o.State().Conversation() {
		if msg.Role == provider.RoleTool {
			toolMsgs = append(toolMsgs, msg)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Equal(t, "call_1", toolMsgs[0].ToolCallID)
	assert.Equal(t, "first", toolMsgs[0].Content)
	assert.Equal(t, "call_2", toolMsgs[1].ToolCallID)
	assert.Equal(t, "second", toolMsgs[1].Content)
}

func TestToolCallIDsSurviveRoundTrip(t *testing.T) {
	// The id the model assigned must flow through the conversation into
	// the next provider request untouched.
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		toolResponse(provider.ToolCall{ID: "call_xyz", Name: "echo", Arguments: `{}`}),
		textResponse("ok"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})
	o.registry.Register(Tool{
		Name:   "echo",
		Schema: map[string]any{"type": "object"},
		Handler: func(context.Context, *State, map[string]any) (any, error) {
			return "result", nil
		},
	})

	_, err := o.ProcessRequest(context.Background(), "go")
	require.NoError(t, err)

	require.Len(t, prov.requests, 2)
	second := prov.requests[1]

	var assistantCallID, toolMsgID string
	for _, msg := range second.Messages {
		if msg.Role == provider.RoleAssistant && len(msg.ToolCalls) > 0 {
			assistantCallID = msg.ToolCalls[0].ID
		}
		if msg.Role == provider.RoleTool {
			toolMsgID = msg.ToolCallID
		}
	}
	assert.Equal(t, "call_xyz", assistantCallID)
	assert.Equal(t, "call_xyz", toolMsgID)
}

func TestHandlerErrorBecomesToolMessage(t *testing.T) {
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		toolResponse(provider.ToolCall{ID: "call_1", Name: "flaky", Arguments: `{}`}),
		textResponse("recovered"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})
	o.registry.Register(Tool{
		Name:   "flaky",
		Schema: map[string]any{"type": "object"},
		Handler: func(context.Context, *State, map[string]any) (any, error) {
			return nil, arguserr.New(arguserr.CodeAgentToolExecFailure, "disk on fire")
		},
	})

	answer, err := o.ProcessRequest(context.Background(), "try it")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	var toolMsg provider.Message
	for _, msg := range o.State().Conversation() {
		if msg.Role == provider.RoleTool {
			toolMsg = msg
		}
	}
	assert.True(t, strings.HasPrefix(toolMsg.Content, "error: "))
	assert.Contains(t, toolMsg.Content, "disk on fire")
}

func TestUnknownToolNamePropagates(t *testing.T) {
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		toolResponse(provider.ToolCall{ID: "call_1", Name: "not_registered", Arguments: `{}`}),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	})

	_, err := o.ProcessRequest(context.Background(), "go")
	assert.True(t, arguserr.HasCode(err, arguserr.CodeAgentToolNotFound))
}

func TestIterationBound(t *testing.T) {
	// The model keeps asking for tools forever; the loop must stop at the
	// bound and answer with the last text, without erroring.
	endless := make([]scriptStep, 0, 10)
	for i := 0; i < 10; i++ {
		endless = append(endless, scriptStep{resp: &provider.ChatResponse{
			Content:   "working on it",
			ToolCalls: []provider.ToolCall{{ID: "c", Name: "noop", Arguments: `{}`}},
		}})
	}
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: endless}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	}, func(cfg *Config) { cfg.MaxIterations = 3 })
	o.registry.Register(Tool{
		Name:   "noop",
		Schema: map[string]any{"type": "object"},
		Handler: func(context.Context, *State, map[string]any) (any, error) {
			return "ok", nil
		},
	})

	answer, err := o.ProcessRequest(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Equal(t, "working on it", answer)
	assert.Equal(t, 3, prov.calls)
}

func TestIterationBoundWithoutText(t *testing.T) {
	endless := []scriptStep{
		toolResponse(provider.ToolCall{ID: "c", Name: "noop", Arguments: `{}`}),
		toolResponse(provider.ToolCall{ID: "c", Name: "noop", Arguments: `{}`}),
	}
	prov := &scriptedProvider{kind: provider.KindAnthropic, script: endless}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{provider.KindAnthropic: prov}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
	}, func(cfg *Config) { cfg.MaxIterations = 2 })
	o.registry.Register(Tool{
		Name:   "noop",
		Schema: map[string]any{"type": "object"},
		Handler: func(context.Context, *State, map[string]any) (any, error) {
			return "ok", nil
		},
	})

	answer, err := o.ProcessRequest(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Equal(t, incompleteMessage, answer)

	incompletes := 0
	for _, msg := range o.State().Conversation() {
		if msg.Role == provider.RoleAssistant && msg.Content == incompleteMessage {
			incompletes++
		}
	}
	assert.Equal(t, 1, incompletes)
}

func TestFailoverOnCreditExhaustion(t *testing.T) {
	anthropic := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		errStep("HTTP 402: credit balance too low"),
	}}
	openai := &scriptedProvider{kind: provider.KindOpenAI, script: []scriptStep{
		textResponse("answer from fallback"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: anthropic,
		provider.KindOpenAI:    openai,
	}}
	o, notifier := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
		provider.KindOpenAI:    {APIKey: "o-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "answer from fallback", answer)
	assert.Equal(t, []provider.Kind{provider.KindAnthropic, provider.KindOpenAI}, factory.built)
	assert.Contains(t, notifier.progress, "switching to openai")
}

func TestFailoverSkipsUnavailable(t *testing.T) {
	// OpenAI has no key, so the resolver must jump straight to Google.
	anthropic := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		errStep("429 too many requests"),
	}}
	google := &scriptedProvider{kind: provider.KindGoogle, script: []scriptStep{
		textResponse("from google"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: anthropic,
		provider.KindGoogle:    google,
	}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
		provider.KindGoogle:    {APIKey: "g-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from google", answer)
	assert.Equal(t, []provider.Kind{provider.KindAnthropic, provider.KindGoogle}, factory.built)
}

func TestOtherErrorsNeverFailOver(t *testing.T) {
	anthropic := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		errStep("dial tcp: connection refused"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: anthropic,
		provider.KindOpenAI:    {kind: provider.KindOpenAI, script: []scriptStep{textResponse("unused")}},
	}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
		provider.KindOpenAI:    {APIKey: "o-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []provider.Kind{provider.KindAnthropic}, factory.built)
	assert.Contains(t, answer, "connection refused")
}

func TestFailoverDisabled(t *testing.T) {
	anthropic := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		errStep("HTTP 402: credit balance too low"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: anthropic,
		provider.KindOpenAI:    {kind: provider.KindOpenAI, script: []scriptStep{textResponse("unused")}},
	}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
		provider.KindOpenAI:    {APIKey: "o-key"},
	}, func(cfg *Config) { cfg.FailoverEnabled = false })

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []provider.Kind{provider.KindAnthropic}, factory.built)
	assert.Contains(t, answer, "exhausted credit")
}

func TestChainExhaustedSurfacesLastError(t *testing.T) {
	rateLimited := func(kind provider.Kind) *scriptedProvider {
		return &scriptedProvider{kind: kind, script: []scriptStep{errStep("429 rate limit exceeded")}}
	}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: rateLimited(provider.KindAnthropic),
		provider.KindOpenAI:    rateLimited(provider.KindOpenAI),
		provider.KindGoogle:    rateLimited(provider.KindGoogle),
	}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "a-key"},
		provider.KindOpenAI:    {APIKey: "o-key"},
		provider.KindGoogle:    {APIKey: "g-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	// Local backend is unreachable in tests, so three remote attempts
	// exhaust the chain.
	assert.Len(t, factory.built, 3)
	assert.Contains(t, answer, "every configured model backend")
	assert.Contains(t, answer, "rate limit")
}

func TestFailureMessageCarriesRemediationHint(t *testing.T) {
	anthropic := &scriptedProvider{kind: provider.KindAnthropic, script: []scriptStep{
		errStep("401 unauthorized"),
	}}
	factory := &testFactory{providers: map[provider.Kind]*scriptedProvider{
		provider.KindAnthropic: anthropic,
	}}
	o, _ := testOrchestrator(t, factory, provider.Settings{
		provider.KindAnthropic: {APIKey: "bad-key"},
	})

	answer, err := o.ProcessRequest(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, answer, "credentials")
	assert.Contains(t, answer, "verify the configured API key")
}

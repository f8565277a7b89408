// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/scanner"
	"github.com/argus-dev/argus/internal/workspace"
)

// scriptedProvider replays a fixed sequence of responses and errors,
// recording every request it receives.
type scriptedProvider struct {
	kind     provider.Kind
	script   []scriptStep
	calls    int
	requests []provider.ChatRequest
}

type scriptStep struct {
	resp *provider.ChatResponse
	err  error
}

func (p *scriptedProvider) Name() string        { return string(p.kind) }
func (p *scriptedProvider) Kind() provider.Kind { return p.kind }
func (p *scriptedProvider) Close() error        { return nil }

func (p *scriptedProvider) Chat(_ context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	p.requests = append(p.requests, req)
	step := scriptStep{err: errors.New("script exhausted")}
	if p.calls < len(p.script) {
		step = p.script[p.calls]
	}
	p.calls++
	return step.resp, step.err
}

// testFactory hands out one scripted provider per kind and counts
// constructions.
type testFactory struct {
	providers map[provider.Kind]*scriptedProvider
	built     []provider.Kind
}

func (f *testFactory) New(kind provider.Kind, _ provider.Config) (provider.Provider, error) {
	f.built = append(f.built, kind)
	p, ok := f.providers[kind]
	if !ok {
		return nil, errors.New("no scripted provider for " + string(kind))
	}
	return p, nil
}

// recordingNotifier captures the event stream for assertions.
type recordingNotifier struct {
	started  int
	progress []string
	cleared  int
	finals   []string
}

func (n *recordingNotifier) Started()              { n.started++ }
func (n *recordingNotifier) Progress(label string) { n.progress = append(n.progress, label) }
func (n *recordingNotifier) Clear()                { n.cleared++ }
func (n *recordingNotifier) Final(content string)  { n.finals = append(n.finals, content) }

func textResponse(content string) scriptStep {
	return scriptStep{resp: &provider.ChatResponse{Content: content}}
}

func toolResponse(calls ...provider.ToolCall) scriptStep {
	return scriptStep{resp: &provider.ChatResponse{ToolCalls: calls}}
}

func errStep(msg string) scriptStep {
	return scriptStep{err: errors.New(msg)}
}

// testOrchestrator wires an Orchestrator around scripted providers. The
// availability probe always fails, so only kinds with an APIKey in
// settings count as available fallbacks.
func testOrchestrator(t *testing.T, factory *testFactory, settings provider.Settings, opts ...func(*Config)) (*Orchestrator, *recordingNotifier) {
	t.Helper()

	checker := provider.NewChecker(settings)
	checker.SetProbe(func(context.Context, string) error {
		return errors.New("probe disabled in tests")
	})

	notifier := &recordingNotifier{}
	reg := NewRegistry()
	cfg := Config{
		Registry:        reg,
		Scanner:         scanner.NewRunner(),
		Settings:        settings,
		Resolver:        provider.NewResolver(nil, checker),
		Factory:         factory.New,
		Notifier:        notifier,
		Primary:         provider.KindAnthropic,
		FailoverEnabled: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg), notifier
}

func newAgentWorkspace(t *testing.T, files map[string]string) *workspace.Context {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	}
	ws, err := workspace.Open(dir)
	require.NoError(t, err)
	return ws
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package server

import (
	"context"
	"log/slog"

	"github.com/argus-dev/argus/internal/agent"
)

// OrchestratorFactory builds a fresh orchestrator wired to the given
// notifier. The chat endpoint is sessionless: each request gets its own
// orchestrator so concurrent requests never share conversation state.
type OrchestratorFactory func(n agent.Notifier) *agent.Orchestrator

// AgentStream adapts the agent orchestrator to the chat endpoint,
// translating notifier events into the SSE stream.
type AgentStream struct {
	build  OrchestratorFactory
	logger *slog.Logger
}

// NewAgentStream creates an AgentStream over the factory.
func NewAgentStream(build OrchestratorFactory, logger *slog.Logger) *AgentStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentStream{build: build, logger: logger}
}

// HandleChat runs one request through a fresh orchestrator and closes the
// event channel when done.
func (a *AgentStream) HandleChat(ctx context.Context, req ChatRequest, events chan<- Event) {
	defer close(events)

	n := &streamNotifier{ctx: ctx, events: events}
	orc := a.build(n)

	if req.Workspace != "" {
		if err := orc.OpenWorkspace(req.Workspace); err != nil {
			a.logger.Warn("opening workspace failed", "path", req.Workspace, "error", err)
			n.send(Event{Event: "error", Data: err.Error()}, true)
			return
		}
	}

	if _, err := orc.ProcessRequest(ctx, req.Content); err != nil {
		a.logger.Error("chat request failed", "error", err)
		n.send(Event{Event: "error", Data: err.Error()}, true)
	}
}

// streamNotifier forwards orchestrator events to the SSE channel.
// Progress events are droppable; the final message is delivered unless the
// client is gone.
type streamNotifier struct {
	ctx    context.Context
	events chan<- Event
}

func (n *streamNotifier) Started()              { n.send(Event{Event: "start"}, false) }
func (n *streamNotifier) Progress(label string) { n.send(Event{Event: "step", Data: label}, false) }
func (n *streamNotifier) Clear()                { n.send(Event{Event: "clear"}, false) }
func (n *streamNotifier) Final(content string)  { n.send(Event{Event: "final", Data: content}, true) }

func (n *streamNotifier) send(e Event, wait bool) {
	if wait {
		select {
		case n.events <- e:
		case <-n.ctx.Done():
		}
		return
	}

	select {
	case n.events <- e:
	default:
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

import (
	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/workspace"
)

// State is the per-session conversation state. It is owned exclusively by
// one Orchestrator: requests are processed to completion one at a time,
// so there is no concurrent mutation.
type State struct {
	conversation []provider.Message
	workspace    *workspace.Context

	// pendingRequest holds a request that could not run because a
	// precondition (an open workspace) was missing. It is set at most
	// once per failed request and cleared exactly once when retried.
	pendingRequest string
}

// NewState creates an empty session state.
func NewState() *State {
	return &State{}
}

// Append adds a message to the conversation.
func (s *State) Append(msg provider.Message) {
	s.conversation = append(s.conversation, msg)
}

// Conversation returns the message history in order.
func (s *State) Conversation() []provider.Message {
	return s.conversation
}

// Reset discards the conversation and any pending request. The workspace
// stays open; it is caller-supplied context, not conversation state.
func (s *State) Reset() {
	s.conversation = nil
	s.pendingRequest = ""
}

// SetWorkspace attaches an opened workspace to the session.
func (s *State) SetWorkspace(ws *workspace.Context) {
	s.workspace = ws
}

// Workspace returns the attached workspace, or nil if none is open.
func (s *State) Workspace() *workspace.Context {
	return s.workspace
}

// SetPending records a request to retry once its missing precondition is
// satisfied.
func (s *State) SetPending(request string) {
	s.pendingRequest = request
}

// Pending returns the stored pending request without clearing it.
func (s *State) Pending() string {
	return s.pendingRequest
}

// TakePending returns and clears the pending request.
func (s *State) TakePending() (string, bool) {
	if s.pendingRequest == "" {
		return "", false
	}
	req := s.pendingRequest
	s.pendingRequest = ""
	return req, true
}

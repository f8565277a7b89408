// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package agent

// Notifier receives UI-facing progress events. Calls are fire-and-forget:
// the orchestrator never blocks on delivery, so implementations must
// return promptly (drop rather than queue unboundedly).
type Notifier interface {
	// Started signals the beginning of request processing.
	Started()
	// Progress reports a labeled intermediate step.
	Progress(label string)
	// Clear signals that any in-flight progress indication should stop.
	Clear()
	// Final delivers the final message for the request.
	Final(content string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Started()        {}
func (NopNotifier) Progress(string) {}
func (NopNotifier) Clear()          {}
func (NopNotifier) Final(string)    {}

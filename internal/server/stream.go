// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Event is a single server-sent event on the chat stream.
type Event struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	Content   string `json:"content" minLength:"1" doc:"Message content"`
	Workspace string `json:"workspace,omitempty" doc:"Workspace path to open for this request"`
}

// ChatHandler processes a chat request and sends events to the channel.
// Implementations must close the channel when done.
type ChatHandler interface {
	HandleChat(ctx context.Context, req ChatRequest, events chan<- Event)
}

// RegisterChatHandler sets the handler used by the chat endpoint.
func (s *Server) RegisterChatHandler(h ChatHandler) {
	s.chatHandler = h
}

func (s *Server) registerChatRoute() {
	s.router.Post("/api/v1/chat", s.handleChat)

	// The streaming handler needs raw http.ResponseWriter access, so it
	// cannot use huma's typed handler signature. The chi route above does
	// the work; this adds the spec entry for documentation.
	minContentLen := 1
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat",
		Summary:     "Send a chat request and stream the response",
		Description: "Set Accept: text/event-stream for SSE; otherwise the response is a JSON array of events.",
		Tags:        []string{"chat"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"application/json": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{"content"},
						Properties: map[string]*huma.Schema{
							"content": {
								Type:        "string",
								MinLength:   &minContentLen,
								Description: "Message content",
							},
							"workspace": {
								Type:        "string",
								Description: "Workspace path to open for this request",
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Event stream (SSE or JSON depending on Accept header)",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {
						Schema: &huma.Schema{
							Type:        "string",
							Description: "Server-sent event stream",
						},
					},
					"application/json": {
						Schema: &huma.Schema{
							Type: "object",
							Properties: map[string]*huma.Schema{
								"events": {
									Type:        "array",
									Description: "Collected events",
									Items:       &huma.Schema{Type: "object"},
								},
							},
						},
					},
				},
			},
			"422": {Description: "Validation error (missing content)"},
			"503": {Description: "Chat handler not configured"},
		},
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusUnprocessableEntity)
		return
	}

	if s.chatHandler == nil {
		http.Error(w, `{"error":"chat handler not configured"}`, http.StatusServiceUnavailable)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.writeSSE(w, r, req)
		return
	}
	s.writeJSON(w, r, req)
}

func (s *Server) writeSSE(w http.ResponseWriter, r *http.Request, req ChatRequest) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		// httptest.ResponseRecorder doesn't implement Flusher,
		// but we still write the events for testability.
		flusher = nil
	}

	ch := make(chan Event, 16)
	go s.chatHandler.HandleChat(r.Context(), req, ch)

	for event := range ch {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, event.Data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, req ChatRequest) {
	ch := make(chan Event, 16)
	go s.chatHandler.HandleChat(r.Context(), req, ch)

	var events []Event
	for event := range ch {
		events = append(events, event)
	}

	w.Header().Set("Content-Type", "application/json")
	resp := struct {
		Events []Event `json:"events"`
	}{Events: events}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
	}
}

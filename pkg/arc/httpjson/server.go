// SPDX-License-Identifier: Apache-2.0

// Package httpjson exposes the HTTP binding of the ARC protocol: a single
// POST /arc endpoint for dispatch, SSE delivery for streamed responses,
// and the health and agent-info introspection endpoints.
package httpjson

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/arc/server"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

const contentTypeARC = "application/arc+json"

// Server routes ARC HTTP traffic to a dispatcher.
type Server struct {
	Dispatcher  *server.Dispatcher
	ServerID    string
	Name        string
	Version     string
	Description string
	EnableCORS  bool

	started time.Time
}

// Option customizes the HTTP server wrapper.
type Option func(*Server)

// WithIdentity sets the server identity reported by /health and /agent-info.
func WithIdentity(id, name, version, description string) Option {
	return func(s *Server) {
		s.ServerID = id
		s.Name = name
		s.Version = version
		s.Description = description
	}
}

// WithCORS enables permissive CORS headers and OPTIONS preflight.
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.EnableCORS = enabled
	}
}

// New creates an HTTP binding over the dispatcher.
func New(dispatcher *server.Dispatcher, opts ...Option) *Server {
	s := &Server{
		Dispatcher: dispatcher,
		ServerID:   "arc-server",
		Version:    "1.0.0",
		started:    time.Now().UTC(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ServeHTTP routes ARC HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.EnableCORS {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	switch {
	case r.URL.Path == "/arc" && r.Method == http.MethodPost:
		s.handleARC(w, r)
	case r.URL.Path == "/health" && r.Method == http.MethodGet:
		s.handleHealth(w)
	case r.URL.Path == "/agent-info" && r.Method == http.MethodGet:
		s.handleAgentInfo(w)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleARC(w http.ResponseWriter, r *http.Request) {
	var req arc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, &arc.Request{},
			errors.New(errors.CodeInvalidRequest, "invalid request body", err))
		return
	}
	if req.ARC != arc.Version {
		s.writeError(w, http.StatusBadRequest, &req,
			errors.Newf(errors.CodeInvalidRequest, "invalid ARC version: %q", req.ARC))
		return
	}
	if req.Method == "" || req.TargetAgent == "" {
		s.writeError(w, http.StatusBadRequest, &req,
			errors.Newf(errors.CodeInvalidRequest, "method and targetAgent are required"))
		return
	}

	resp, handle := s.Dispatcher.Handle(r.Context(), &req)
	if handle != nil {
		s.streamFrames(w, r, handle)
		return
	}
	writeJSON(w, contentTypeARC, http.StatusOK, resp)
}

// streamFrames delivers a stream handle over SSE. Client disconnects
// surface as context cancellation or write errors; the delivery engine
// stops pulling in either case.
func (s *Server) streamFrames(w http.ResponseWriter, r *http.Request, handle *server.StreamHandle) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, contentTypeARC, http.StatusInternalServerError, map[string]string{
			"error": "streaming not supported",
		})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writer := &sseFrameWriter{w: w, f: flusher}
	_ = server.Deliver(r.Context(), handle, writer)
	s.Dispatcher.Metrics().RecordFrames(r.Context(), handle.TargetAgent, writer.frames)
}

func (s *Server) handleHealth(w http.ResponseWriter) {
	writeJSON(w, "application/json", http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"serverId": s.ServerID,
		"version":  s.Version,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleAgentInfo(w http.ResponseWriter) {
	agents := s.Dispatcher.Registry().Agents()
	total := 0
	for _, methods := range agents {
		total += len(methods)
	}
	writeJSON(w, "application/json", http.StatusOK, map[string]interface{}{
		"serverId":     s.ServerID,
		"name":         s.Name,
		"version":      s.Version,
		"description":  s.Description,
		"agents":       agents,
		"totalAgents":  len(agents),
		"totalMethods": total,
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, req *arc.Request, err *errors.ARCError) {
	resp := &arc.Response{
		ARC:           arc.Version,
		ID:            req.ID,
		ResponseAgent: s.ServerID,
		TargetAgent:   req.RequestAgent,
		Error: &arc.ErrorObject{
			Code:    err.WireCode,
			Kind:    string(err.Code),
			Message: err.Message,
		},
		TraceID: req.TraceID,
	}
	writeJSON(w, contentTypeARC, status, resp)
}

func writeJSON(w http.ResponseWriter, contentType string, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type sseFrameWriter struct {
	w      http.ResponseWriter
	f      http.Flusher
	frames int64
}

func (s *sseFrameWriter) WriteFrame(frame *arc.StreamFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.f.Flush()
	s.frames++
	return nil
}

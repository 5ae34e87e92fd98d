// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

// Handler executes one (agent, method) call. It returns either a result
// envelope or a fragment source wrapped in a Reply.
type Handler func(ctx context.Context, call *Call) (*Reply, error)

// Reply is the handler output: exactly one of Result and Stream is set.
type Reply struct {
	Result *arc.Result
	Stream FragmentSource
	ChatID string // chat the stream belongs to, required when Stream is set
}

// ResultReply wraps a synchronous result envelope.
func ResultReply(result *arc.Result) *Reply {
	return &Reply{Result: result}
}

// StreamReply wraps a fragment source for incremental delivery.
func StreamReply(chatID string, source FragmentSource) *Reply {
	return &Reply{ChatID: chatID, Stream: source}
}

// Registry maps (agent id, method name) to handlers. Registration happens
// during startup, before serving begins; Resolve is safe for concurrent use
// at any time.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]map[string]Handler
}

// NewRegistry creates an empty method registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]map[string]Handler)}
}

// Register adds a handler for (agentID, method), composing any middleware
// around it once. A second registration for the same pair fails with
// DuplicateRegistration; the registry never overwrites.
func (r *Registry) Register(agentID, method string, handler Handler, mw ...Middleware) error {
	if agentID == "" || method == "" {
		return errors.Newf(errors.CodeInternal, "agent id and method are required")
	}
	if handler == nil {
		return errors.Newf(errors.CodeInternal, "nil handler for %s/%s", agentID, method)
	}

	composed := Chain(handler, mw...)

	r.mu.Lock()
	defer r.mu.Unlock()
	methods, ok := r.agents[agentID]
	if !ok {
		methods = make(map[string]Handler)
		r.agents[agentID] = methods
	}
	if _, exists := methods[method]; exists {
		return errors.Newf(errors.CodeDuplicateRegistration,
			"handler already registered for %s/%s", agentID, method)
	}
	methods[method] = composed
	return nil
}

// MustRegister is Register for startup wiring; it panics on failure since a
// registration collision is a configuration error.
func (r *Registry) MustRegister(agentID, method string, handler Handler, mw ...Middleware) {
	if err := r.Register(agentID, method, handler, mw...); err != nil {
		panic(fmt.Sprintf("arc: %v", err))
	}
}

// Resolve returns the handler for (agentID, method). An unknown agent fails
// with MethodNotFound, a known agent without the method with
// UnsupportedMethod. Callers rely on the distinction for user-facing
// messages.
func (r *Registry) Resolve(agentID, method string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods, ok := r.agents[agentID]
	if !ok {
		return nil, errors.Newf(errors.CodeMethodNotFound, "agent not found: %s", agentID).
			WithContext("agent", agentID)
	}
	handler, ok := methods[method]
	if !ok {
		return nil, errors.Newf(errors.CodeUnsupportedMethod,
			"method %s not found for agent %s", method, agentID).
			WithContext("agent", agentID).
			WithContext("method", method).
			WithContext("supported", r.methodsLocked(agentID))
	}
	return handler, nil
}

// Agents returns a consistent snapshot of agent ids to their sorted method
// names, used for startup reporting and /agent-info.
func (r *Registry) Agents() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.agents))
	for agentID := range r.agents {
		out[agentID] = r.methodsLocked(agentID)
	}
	return out
}

func (r *Registry) methodsLocked(agentID string) []string {
	methods := r.agents[agentID]
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

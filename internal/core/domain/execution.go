package domain

import "sync"

// ExecutionContext is the per-node key/value bag updated after each page
// fetch. It exists for introspection only and does not drive behaviour.
type ExecutionContext struct {
	mu    sync.RWMutex
	state map[string]any
}

// NewExecutionContext creates an empty execution context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{state: make(map[string]any)}
}

// Set stores a value.
func (e *ExecutionContext) Set(key string, value any) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state[key] = value
}

// Get returns a stored value.
func (e *ExecutionContext) Get(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.state[key]
	return v, ok
}

// Snapshot returns a copy of the current state.
func (e *ExecutionContext) Snapshot() map[string]any {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.state))
	for k, v := range e.state {
		out[k] = v
	}
	return out
}

// RecordPage stores the latest pagination position.
func (e *ExecutionContext) RecordPage(p *PagedBody, nextURL string) {
	if e == nil || p == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state["hasMore"] = p.HasMore
	e.state["count"] = p.Count
	e.state["offset"] = p.Offset
	e.state["totalResults"] = p.TotalResults
	e.state["nextUrl"] = nextURL
}

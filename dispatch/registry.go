package dispatch

import (
	"fmt"
	"sync"
)

// Registry maps tool names to definitions, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a name twice is an error; use
// Unregister first to replace a tool.
func (r *Registry) Register(tool *Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %q is already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Unregister removes a tool, reporting whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns the registered tools in registration order.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Declarations returns the LLM-facing view of every tool, in registration
// order.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, r.Count())
	for _, tool := range r.All() {
		decls = append(decls, tool.declaration())
	}
	return decls
}

// InitializeAll runs every tool's Initialize hook against the context. A
// failing hook is logged and skipped; it is not fatal to the others. The
// collected errors are returned for diagnostics.
func (r *Registry) InitializeAll(tc *ToolContext) []error {
	var errs []error
	for _, tool := range r.All() {
		if tool.Initialize == nil {
			continue
		}
		if err := tool.Initialize(tc); err != nil {
			if tc != nil && tc.Logger != nil {
				tc.Logger.Warn("tool initialize failed", "tool", tool.Name, "error", err)
			}
			errs = append(errs, fmt.Errorf("initialize %s: %w", tool.Name, err))
		}
	}
	return errs
}

// ShutdownAll runs every tool's Shutdown hook, continuing past failures.
func (r *Registry) ShutdownAll() []error {
	var errs []error
	for _, tool := range r.All() {
		if tool.Shutdown == nil {
			continue
		}
		if err := tool.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", tool.Name, err))
		}
	}
	return errs
}

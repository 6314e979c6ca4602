package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mossline/beacon/internal/providers"
)

// Tool is one callable capability exposed to the model.
type Tool interface {
	// Name is the identifier the model calls the tool by.
	Name() string

	// Description tells the model when to use the tool.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() map[string]interface{}

	// Execute runs the tool with raw JSON arguments and returns a
	// human-readable result for the model.
	Execute(ctx context.Context, args string) (string, error)
}

// Registry holds the tools available to one agent.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the tool definitions in registration order, for
// inclusion in provider requests.
func (r *Registry) Definitions() []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, providers.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches a tool call. Unknown tools and tool failures are
// reported as errors; the caller decides how to surface them to the model.
func (r *Registry) Execute(ctx context.Context, name, args string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("tool not found: %s", name)
	}
	return t.Execute(ctx, args)
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ErrNotFound indicates an invocation request named a tool that was never
// registered. This is registry misconfiguration, a programmer error, and is
// not downgraded to a model-readable tool result.
var ErrNotFound = errors.New("tool not found")

// Registry maps tool names to instances. It serves two callers: the
// generation client advertises Refs() on the first model call and dispatches
// the model's invocation requests through Execute.
//
// Thread Safety: safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	refs  []ai.ToolRef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool and its Genkit declaration. Registering the same
// name twice is rejected.
func (r *Registry) Register(tool Tool, ref ai.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool %q already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	if ref != nil {
		r.refs = append(r.refs, ref)
	}
	return nil
}

// Refs returns the Genkit tool references for advertising capabilities to
// the model.
func (r *Registry) Refs() []ai.ToolRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ai.ToolRef, len(r.refs))
	copy(out, r.refs)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute dispatches an invocation request by name. Unknown names return
// ErrNotFound; tool execution errors pass through untouched so the caller
// decides whether to surface or downgrade them.
func (r *Registry) Execute(ctx context.Context, name string, input any) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return tool.Execute(ctx, input)
}

// Define registers a typed tool with both Genkit (which derives the input
// schema from In's struct tags and advertises it to the model) and the
// registry (which dispatches the model's invocation requests manually).
func Define[In any](g *genkit.Genkit, r *Registry, name, description string, fn func(context.Context, In) (string, error)) error {
	ref := genkit.DefineTool(g, name, description,
		func(ctx *ai.ToolContext, input In) (string, error) {
			return fn(ctx, input)
		})
	return r.Register(NewTool(name, description, fn), ref)
}

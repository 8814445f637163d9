// Package tools provides the capability interface the model can invoke,
// plus a registry that advertises tool schemas and dispatches invocation
// requests coming back from the model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is a single capability exposed to the language model. Tools carry
// their own metadata; execution takes the model-supplied arguments and
// returns text for the model to read.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description returns the tool's functionality description. The model
	// uses this to decide when to call the tool.
	Description() string

	// Execute runs the tool with the model-supplied arguments.
	Execute(ctx context.Context, input any) (string, error)
}

// ExecutableTool is a complete Tool implementation. It pairs metadata with
// a type-erased handler so heterogeneous tools can share one registry while
// each keeps a typed input struct.
type ExecutableTool struct {
	name        string
	description string
	handler     func(context.Context, any) (string, error)
}

// Name returns the tool's unique identifier.
func (t *ExecutableTool) Name() string {
	return t.name
}

// Description returns the tool's functionality description.
func (t *ExecutableTool) Description() string {
	return t.description
}

// Execute runs the tool with the given input.
func (t *ExecutableTool) Execute(ctx context.Context, input any) (string, error) {
	return t.handler(ctx, input)
}

// NewTool creates a tool with a typed handler. Type safety is checked at
// compile time via the In parameter; type erasure happens internally so the
// registry can store tools with different input types.
//
// The model sends arguments as map[string]any; the adapter first tries a
// direct assertion, then falls back to a JSON round trip into In.
func NewTool[In any](name, description string, handler func(context.Context, In) (string, error)) *ExecutableTool {
	var zeroIn In

	erased := func(ctx context.Context, input any) (string, error) {
		if typed, ok := input.(In); ok {
			return handler(ctx, typed)
		}

		raw, err := json.Marshal(input)
		if err != nil {
			return "", fmt.Errorf("marshaling tool input: %w", err)
		}

		var typed In
		if err := json.Unmarshal(raw, &typed); err != nil {
			return "", fmt.Errorf("invalid input type: expected %T, got %T: %w", zeroIn, input, err)
		}
		return handler(ctx, typed)
	}

	return &ExecutableTool{
		name:        name,
		description: description,
		handler:     erased,
	}
}

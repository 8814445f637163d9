// Package chat drives answer generation. A Completer abstracts one model
// call; the Generator layers the tool-use protocol on top: at most two
// model calls per query, with tool capabilities advertised only on the
// first.
package chat

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// CompletionRequest is one model call. Tools carries the capabilities
// advertised for this call; nil means a tool-free call.
type CompletionRequest struct {
	System   string
	Messages []*ai.Message
	Tools    []ai.ToolRef
}

// Completion is the model's reply to one call. Message is the full model
// turn for threading back into the conversation; Text and ToolRequests are
// its extracted parts.
type Completion struct {
	Message      *ai.Message
	Text         string
	ToolRequests []*ai.ToolRequest
}

// Completer performs a single model call. Defined here so tests can
// substitute a scripted implementation.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// GenkitCompleter is the production Completer backed by a Genkit instance.
type GenkitCompleter struct {
	g         *genkit.Genkit
	modelName string
}

// NewGenkitCompleter creates a completer calling modelName through g.
func NewGenkitCompleter(g *genkit.Genkit, modelName string) (*GenkitCompleter, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &GenkitCompleter{g: g, modelName: modelName}, nil
}

// Complete performs one generation call. When tools are advertised the
// model's tool requests are returned unexecuted; dispatch stays with the
// caller.
func (c *GenkitCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
		ai.WithMessages(req.Messages...),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.Tools) > 0 {
		opts = append(opts,
			ai.WithTools(req.Tools...),
			ai.WithReturnToolRequests(true),
		)
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	return &Completion{
		Message:      resp.Message,
		Text:         resp.Text(),
		ToolRequests: resp.ToolRequests(),
	}, nil
}

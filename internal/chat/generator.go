package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursechat/coursechat/internal/tools"
)

// fallbackMessage stands in when the model produces neither text nor tool
// requests.
const fallbackMessage = "I'm sorry, I couldn't generate a response. Please try again."

// Generator turns a user query plus conversation history into a final
// answer. Per query it makes at most two model calls: the first advertises
// the registered tools, and if the model requests any, the Generator
// executes them and makes one follow-up call carrying the results. The
// follow-up call advertises no tools, so the protocol always terminates.
type Generator struct {
	completer Completer
	registry  *tools.Registry
	logger    *slog.Logger
}

// NewGenerator creates a Generator. A nil logger falls back to
// slog.Default().
func NewGenerator(completer Completer, registry *tools.Registry, logger *slog.Logger) (*Generator, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{completer: completer, registry: registry, logger: logger}, nil
}

// Generate produces the answer to query given the prior conversation.
// History is read, never mutated; the caller owns session bookkeeping.
func (g *Generator) Generate(ctx context.Context, query string, history []*ai.Message) (string, error) {
	messages := make([]*ai.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(query)))

	first, err := g.completer.Complete(ctx, CompletionRequest{
		System:   systemPrompt,
		Messages: messages,
		Tools:    g.registry.Refs(),
	})
	if err != nil {
		return "", fmt.Errorf("initial model call: %w", err)
	}

	if len(first.ToolRequests) == 0 {
		return finalText(first), nil
	}

	g.logger.Debug("model requested tools", "count", len(first.ToolRequests))

	toolParts, err := g.runTools(ctx, first.ToolRequests)
	if err != nil {
		return "", err
	}

	messages = append(messages, first.Message)
	messages = append(messages, ai.NewMessage(ai.RoleTool, nil, toolParts...))

	// Tool-free follow-up: whatever the model says now is the answer.
	second, err := g.completer.Complete(ctx, CompletionRequest{
		System:   systemPrompt,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("follow-up model call: %w", err)
	}
	return finalText(second), nil
}

// runTools dispatches every tool request through the registry. Execution
// failures become tool-result text so the model can explain the failure;
// an unregistered tool name is a wiring bug and aborts the query.
func (g *Generator) runTools(ctx context.Context, requests []*ai.ToolRequest) ([]*ai.Part, error) {
	parts := make([]*ai.Part, 0, len(requests))
	for _, req := range requests {
		output, err := g.registry.Execute(ctx, req.Name, req.Input)
		if errors.Is(err, tools.ErrNotFound) {
			return nil, fmt.Errorf("dispatching tool request: %w", err)
		}
		if err != nil {
			g.logger.Warn("tool execution failed", "tool", req.Name, "error", err)
			output = fmt.Sprintf("Tool execution failed: %v", err)
		}
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: output,
		}))
	}
	return parts, nil
}

// finalText extracts the answer text, substituting the fallback for an
// empty model turn.
func finalText(c *Completion) string {
	if strings.TrimSpace(c.Text) == "" {
		return fallbackMessage
	}
	return c.Text
}

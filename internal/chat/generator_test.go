package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursechat/coursechat/internal/log"
	"github.com/coursechat/coursechat/internal/tools"
)

// scriptedCompleter returns canned completions in order and records every
// request it receives.
type scriptedCompleter struct {
	responses []*Completion
	errs      []error
	requests  []CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		return nil, errors.New("unexpected extra model call")
	}
	return s.responses[i], nil
}

func textCompletion(text string) *Completion {
	return &Completion{
		Message: ai.NewModelMessage(ai.NewTextPart(text)),
		Text:    text,
	}
}

func toolCompletion(name string, input any) *Completion {
	req := &ai.ToolRequest{Name: name, Ref: "ref-1", Input: input}
	return &Completion{
		Message:      ai.NewMessage(ai.RoleModel, nil, ai.NewToolRequestPart(req)),
		ToolRequests: []*ai.ToolRequest{req},
	}
}

func testRegistry(t *testing.T, handler func(context.Context, struct {
	Query string `json:"query"`
}) (string, error)) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	if err := r.Register(tools.NewTool("search_course_content", "search", handler), nil); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return r
}

func TestGenerate_DirectAnswer(t *testing.T) {
	completer := &scriptedCompleter{responses: []*Completion{textCompletion("Paris.")}}
	gen, err := NewGenerator(completer, tools.NewRegistry(), log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	answer, err := gen.Generate(context.Background(), "Capital of France?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "Paris." {
		t.Errorf("answer = %q", answer)
	}
	if len(completer.requests) != 1 {
		t.Errorf("model calls = %d, want 1", len(completer.requests))
	}
}

func TestGenerate_ToolRoundTrip(t *testing.T) {
	var toolCalled bool
	registry := testRegistry(t, func(_ context.Context, in struct {
		Query string `json:"query"`
	}) (string, error) {
		toolCalled = true
		return "[Course - Lesson 1]\ncontent about " + in.Query, nil
	})

	completer := &scriptedCompleter{responses: []*Completion{
		toolCompletion("search_course_content", map[string]any{"query": "chunking"}),
		textCompletion("Chunking splits text."),
	}}
	gen, err := NewGenerator(completer, registry, log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	answer, err := gen.Generate(context.Background(), "What is chunking?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != "Chunking splits text." {
		t.Errorf("answer = %q", answer)
	}
	if !toolCalled {
		t.Error("tool was never executed")
	}

	if len(completer.requests) != 2 {
		t.Fatalf("model calls = %d, want 2", len(completer.requests))
	}

	// Tools advertised on the first call only.
	if len(completer.requests[0].Tools) == 0 {
		t.Error("first call advertised no tools")
	}
	if len(completer.requests[1].Tools) != 0 {
		t.Error("follow-up call advertised tools")
	}

	// The follow-up must carry the tool request turn and the tool results.
	second := completer.requests[1].Messages
	if len(second) != 3 {
		t.Fatalf("follow-up messages = %d, want 3 (user, model, tool)", len(second))
	}
	if second[2].Role != ai.RoleTool {
		t.Errorf("messages[2].Role = %q, want tool", second[2].Role)
	}
	resp := second[2].Content[0].ToolResponse
	if resp == nil || resp.Ref != "ref-1" {
		t.Errorf("tool response = %+v, want Ref carried over", resp)
	}
	if out, _ := resp.Output.(string); !strings.Contains(out, "chunking") {
		t.Errorf("tool output = %v", resp.Output)
	}
}

func TestGenerate_ToolErrorBecomesToolResult(t *testing.T) {
	registry := testRegistry(t, func(context.Context, struct {
		Query string `json:"query"`
	}) (string, error) {
		return "", errors.New("vector search failed")
	})

	completer := &scriptedCompleter{responses: []*Completion{
		toolCompletion("search_course_content", map[string]any{"query": "x"}),
		textCompletion("I could not search the materials."),
	}}
	gen, err := NewGenerator(completer, registry, log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	answer, err := gen.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v, want downgraded tool failure", err)
	}
	if answer != "I could not search the materials." {
		t.Errorf("answer = %q", answer)
	}

	resp := completer.requests[1].Messages[2].Content[0].ToolResponse
	out, _ := resp.Output.(string)
	if !strings.Contains(out, "vector search failed") {
		t.Errorf("tool result %q does not describe the failure", out)
	}
}

func TestGenerate_UnknownToolIsFatal(t *testing.T) {
	completer := &scriptedCompleter{responses: []*Completion{
		toolCompletion("no_such_tool", nil),
		textCompletion("never reached"),
	}}
	gen, err := NewGenerator(completer, tools.NewRegistry(), log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	_, err = gen.Generate(context.Background(), "q", nil)
	if !errors.Is(err, tools.ErrNotFound) {
		t.Fatalf("Generate() error = %v, want ErrNotFound", err)
	}
	if len(completer.requests) != 1 {
		t.Errorf("model calls = %d, want 1 (abort before follow-up)", len(completer.requests))
	}
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	wantErr := errors.New("rate limited")
	completer := &scriptedCompleter{errs: []error{wantErr}}
	gen, err := NewGenerator(completer, tools.NewRegistry(), log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	_, err = gen.Generate(context.Background(), "q", nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("Generate() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestGenerate_EmptyResponseFallback(t *testing.T) {
	completer := &scriptedCompleter{responses: []*Completion{textCompletion("  ")}}
	gen, err := NewGenerator(completer, tools.NewRegistry(), log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	answer, err := gen.Generate(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer != fallbackMessage {
		t.Errorf("answer = %q, want fallback", answer)
	}
}

func TestGenerate_HistoryPrecedesQuery(t *testing.T) {
	completer := &scriptedCompleter{responses: []*Completion{textCompletion("ok")}}
	gen, err := NewGenerator(completer, tools.NewRegistry(), log.NewNop())
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	history := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("earlier question")),
		ai.NewModelMessage(ai.NewTextPart("earlier answer")),
	}
	if _, err := gen.Generate(context.Background(), "follow-up", history); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	msgs := completer.requests[0].Messages
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[0].Content[0].Text != "earlier question" {
		t.Errorf("messages[0] = %q", msgs[0].Content[0].Text)
	}
	if msgs[2].Content[0].Text != "follow-up" {
		t.Errorf("messages[2] = %q", msgs[2].Content[0].Text)
	}
	if len(history) != 2 {
		t.Errorf("history mutated: len = %d", len(history))
	}
}

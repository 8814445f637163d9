// Package rag assembles retrieval-augmented answering: it threads session
// history through the generation client and pairs each answer with the
// sources the search tool consulted.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"

	"github.com/coursechat/coursechat/internal/session"
	"github.com/coursechat/coursechat/internal/tools"
)

// Generator produces the final answer for a query given prior conversation.
type Generator interface {
	Generate(ctx context.Context, query string, history []*ai.Message) (string, error)
}

// Answer is one completed query: the text shown to the user and the course
// sources consulted while producing it. Sources is empty when no search
// ran or nothing matched.
type Answer struct {
	Text    string
	Sources []tools.Source
}

// System orchestrates one query end to end.
type System struct {
	generator Generator
	search    *tools.CourseSearch
	sessions  *session.Store
	logger    *slog.Logger
}

// NewSystem creates the orchestrator. A nil logger falls back to
// slog.Default().
func NewSystem(generator Generator, search *tools.CourseSearch, sessions *session.Store, logger *slog.Logger) (*System, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if search == nil {
		return nil, fmt.Errorf("search tool is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &System{generator: generator, search: search, sessions: sessions, logger: logger}, nil
}

// Query answers text within the given session. On success the exchange is
// appended to the session history; a failed query leaves history untouched.
func (s *System) Query(ctx context.Context, sessionID, text string) (*Answer, error) {
	// Stale sources from the previous query must never leak into this
	// answer's citations.
	s.search.Reset()

	history := s.sessions.History(sessionID)

	answer, err := s.generator.Generate(ctx, text, history)
	if err != nil {
		return nil, fmt.Errorf("answering query: %w", err)
	}

	sources := s.search.LastSources()
	s.sessions.AppendExchange(sessionID, text, answer)

	s.logger.Info("query answered",
		"session_id", sessionID, "query_length", len(text), "source_count", len(sources))

	return &Answer{Text: answer, Sources: sources}, nil
}

// ClearSession drops a session's history.
func (s *System) ClearSession(sessionID string) {
	s.sessions.Clear(sessionID)
}

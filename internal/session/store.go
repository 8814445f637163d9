// Package session keeps per-conversation message history in memory.
//
// History is capped per session: when a session exceeds the configured
// number of exchanges, the oldest exchange is dropped. Process restart
// clears all sessions.
package session

import (
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// DefaultMaxExchanges is the history cap applied when NewStore is given a
// non-positive limit. One exchange is a user message plus the assistant
// reply.
const DefaultMaxExchanges = 5

// Store holds conversation histories keyed by session ID.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu           sync.RWMutex
	maxExchanges int
	sessions     map[string][]*ai.Message
}

// NewStore creates a Store capping each session at maxExchanges exchanges.
func NewStore(maxExchanges int) *Store {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Store{
		maxExchanges: maxExchanges,
		sessions:     make(map[string][]*ai.Message),
	}
}

// History returns the session's messages oldest-first. An unknown session
// ID yields an empty history; sessions exist implicitly from first use.
func (s *Store) History(sessionID string) []*ai.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	out := make([]*ai.Message, len(msgs))
	copy(out, msgs)
	return out
}

// AppendExchange records one completed query: the user's input and the
// assistant's final answer. Intermediate tool traffic is never stored.
// When the cap is exceeded the oldest exchange is evicted.
func (s *Store) AppendExchange(sessionID, userInput, answer string) {
	user := ai.NewUserMessage(ai.NewTextPart(userInput))
	model := ai.NewModelMessage(ai.NewTextPart(answer))

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.sessions[sessionID], user, model)
	if max := s.maxExchanges * 2; len(msgs) > max {
		msgs = msgs[len(msgs)-max:]
	}
	s.sessions[sessionID] = msgs
}

// Clear removes a session's history. Clearing an unknown session is a
// no-op.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

package memory

import (
	"context"
	"sync"
	"time"
)

// userData holds the turns, facts, and extraction marks for one user.
type userData struct {
	turns     []Turn
	facts     []Fact
	extracted map[string]time.Time // session ID → last extraction
}

// InMemoryStore is a thread-safe, process-scoped implementation of Store.
// All state is discarded on process exit.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userData
}

// NewInMemoryStore creates a new empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make(map[string]*userData),
	}
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) getOrCreate(userID string) *userData {
	ud, ok := s.users[userID]
	if !ok {
		ud = &userData{extracted: make(map[string]time.Time)}
		s.users[userID] = ud
	}
	return ud
}

// AppendTurn appends a turn to its user's history.
func (s *InMemoryStore) AppendTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ud := s.getOrCreate(turn.UserID)
	ud.turns = append(ud.turns, turn)
	return nil
}

// SessionTurns returns the turns for (userID, sessionID) in insertion order.
func (s *InMemoryStore) SessionTurns(_ context.Context, userID, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ud, ok := s.users[userID]
	if !ok {
		return nil, nil
	}

	var result []Turn
	for _, t := range ud.turns {
		if t.SessionID == sessionID {
			result = append(result, t)
		}
	}
	return result, nil
}

// AppendFacts appends facts to the user's collection.
func (s *InMemoryStore) AppendFacts(_ context.Context, userID string, facts []Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ud := s.getOrCreate(userID)
	ud.facts = append(ud.facts, facts...)
	return nil
}

// Facts returns a copy of the user's fact collection in insertion order.
func (s *InMemoryStore) Facts(_ context.Context, userID string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ud, ok := s.users[userID]
	if !ok || len(ud.facts) == 0 {
		return nil, nil
	}

	result := make([]Fact, len(ud.facts))
	copy(result, ud.facts)
	return result, nil
}

// FactCount returns the number of facts stored for the user.
func (s *InMemoryStore) FactCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ud, ok := s.users[userID]
	if !ok {
		return 0, nil
	}
	return len(ud.facts), nil
}

// DirtySessions returns idle sessions with turns newer than their last
// extraction mark.
func (s *InMemoryStore) DirtySessions(_ context.Context, idleBefore time.Time) ([]SessionRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []SessionRef
	for userID, ud := range s.users {
		last := make(map[string]time.Time)
		for _, t := range ud.turns {
			if t.Timestamp.After(last[t.SessionID]) {
				last[t.SessionID] = t.Timestamp
			}
		}
		for sessionID, lastTurn := range last {
			if !lastTurn.Before(idleBefore) {
				continue
			}
			if mark, ok := ud.extracted[sessionID]; ok && !mark.Before(lastTurn) {
				continue
			}
			refs = append(refs, SessionRef{
				UserID:    userID,
				SessionID: sessionID,
				LastTurn:  lastTurn,
			})
		}
	}
	return refs, nil
}

// MarkExtracted records the extraction time for (userID, sessionID).
func (s *InMemoryStore) MarkExtracted(_ context.Context, userID, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ud := s.getOrCreate(userID)
	ud.extracted[sessionID] = at
	return nil
}

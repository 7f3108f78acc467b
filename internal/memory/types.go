// Package memory implements the conversation memory bank: per-user turn
// history, LLM-backed fact extraction, and LLM-backed relevance search
// with a best-effort degraded fallback.
package memory

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Role constants for conversation turns.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message within a conversation session. Turns are immutable
// once appended; a session is the set of a user's turns sharing a
// session ID, not a stored entity of its own.
type Turn struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Fact is a structured piece of information extracted from a session's
// turns. Facts are immutable and owned by the user's collection; the
// SessionID always names the session whose turns produced the fact.
type Fact struct {
	ID          string    `json:"id"`
	Text        string    `json:"fact"`
	Context     string    `json:"context"`
	Importance  int       `json:"importance"`
	SessionID   string    `json:"session_id"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// ScoredFact is a Fact annotated with a relevance score from the ranking
// call. RelevanceScore is 1..10 on the ranked path and 0 on degraded
// fallback results — consumers must tolerate its absence.
type ScoredFact struct {
	Fact
	RelevanceScore int `json:"relevance_score,omitempty"`
}

// SearchResult is the outcome of a memory search. Degraded marks the
// fallback path: the ranking call failed and Facts holds the first
// stored facts, unscored. A user with stored facts never gets an empty
// result; an empty store yields empty Facts with Degraded false.
type SearchResult struct {
	Facts    []ScoredFact `json:"facts"`
	Degraded bool         `json:"degraded"`
}

// SessionRef identifies a session with pending, unextracted turns.
// Used by the background extraction sweep.
type SessionRef struct {
	UserID    string
	SessionID string
	LastTurn  time.Time
}

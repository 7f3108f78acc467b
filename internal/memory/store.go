package memory

import (
	"context"
	"time"
)

// Store persists turns and facts, keyed by user. The default is the
// process-scoped InMemoryStore; modules/store provides SQLite and
// Postgres implementations behind the same contract.
//
// Implementations must be safe for concurrent use: the bank itself is
// called from the gateway, the MCP server, and the cron sweep.
type Store interface {
	// AppendTurn appends a turn to its user's history. Unknown users are
	// created implicitly.
	AppendTurn(ctx context.Context, turn Turn) error

	// SessionTurns returns the turns for (userID, sessionID) in insertion
	// order. Returns an empty slice when none match.
	SessionTurns(ctx context.Context, userID, sessionID string) ([]Turn, error)

	// AppendFacts appends extracted facts to the user's collection.
	AppendFacts(ctx context.Context, userID string, facts []Fact) error

	// Facts returns all facts stored for the user in insertion order.
	Facts(ctx context.Context, userID string) ([]Fact, error)

	// FactCount returns the number of facts stored for the user.
	FactCount(ctx context.Context, userID string) (int, error)

	// DirtySessions returns sessions whose newest turn is older than
	// idleBefore but newer than the session's last extraction mark —
	// i.e. idle sessions with turns not yet turned into facts.
	DirtySessions(ctx context.Context, idleBefore time.Time) ([]SessionRef, error)

	// MarkExtracted records that extraction ran for (userID, sessionID)
	// at the given time.
	MarkExtracted(ctx context.Context, userID, sessionID string, at time.Time) error
}

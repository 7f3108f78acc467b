package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tbellamy/membank/internal/memory"
)

// AppendTurn implements memory.Store.
func (s *store) AppendTurn(ctx context.Context, turn memory.Turn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (user_id, session_id, role, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		turn.UserID, turn.SessionID, string(turn.Role), turn.Text,
		turn.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append turn: %w", err)
	}
	return nil
}

// SessionTurns implements memory.Store. Turns come back in insertion order.
func (s *store) SessionTurns(ctx context.Context, userID, sessionID string) ([]memory.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, session_id, role, text, created_at
		FROM turns
		WHERE user_id = ? AND session_id = ?
		ORDER BY rowid`,
		userID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load session turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []memory.Turn
	for rows.Next() {
		var (
			turn memory.Turn
			role string
			ns   int64
		)
		if err := rows.Scan(&turn.UserID, &turn.SessionID, &role, &turn.Text, &ns); err != nil {
			return nil, fmt.Errorf("sqlite: scan turn: %w", err)
		}
		turn.Role = memory.Role(role)
		turn.Timestamp = time.Unix(0, ns).UTC()
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan turn rows: %w", err)
	}
	return turns, nil
}

// AppendFacts implements memory.Store. All facts land in one transaction
// so a failed extraction never leaves a partial batch behind.
func (s *store) AppendFacts(ctx context.Context, userID string, facts []memory.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin append facts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range facts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO facts (id, user_id, fact, context, importance, session_id, extracted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, userID, f.Text, f.Context, f.Importance, f.SessionID,
			f.ExtractedAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("sqlite: insert fact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit facts: %w", err)
	}
	return nil
}

// Facts implements memory.Store.
func (s *store) Facts(ctx context.Context, userID string) ([]memory.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fact, context, importance, session_id, extracted_at
		FROM facts
		WHERE user_id = ?
		ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanFacts(rows)
}

// FactCount implements memory.Store.
func (s *store) FactCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM facts WHERE user_id = ?", userID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: count facts: %w", err)
	}
	return count, nil
}

// DirtySessions implements memory.Store. A session is dirty when its
// newest turn is older than idleBefore and newer than its extraction mark.
func (s *store) DirtySessions(ctx context.Context, idleBefore time.Time) ([]memory.SessionRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.user_id, t.session_id, MAX(t.created_at) AS last_turn
		FROM turns t
		LEFT JOIN extraction_marks m
			ON m.user_id = t.user_id AND m.session_id = t.session_id
		GROUP BY t.user_id, t.session_id
		HAVING last_turn < ? AND (m.extracted_at IS NULL OR last_turn > m.extracted_at)
		ORDER BY t.user_id, t.session_id`,
		idleBefore.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list dirty sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var refs []memory.SessionRef
	for rows.Next() {
		var (
			ref memory.SessionRef
			ns  int64
		)
		if err := rows.Scan(&ref.UserID, &ref.SessionID, &ns); err != nil {
			return nil, fmt.Errorf("sqlite: scan session ref: %w", err)
		}
		ref.LastTurn = time.Unix(0, ns).UTC()
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan session rows: %w", err)
	}
	return refs, nil
}

// MarkExtracted implements memory.Store.
func (s *store) MarkExtracted(ctx context.Context, userID, sessionID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO extraction_marks (user_id, session_id, extracted_at)
		VALUES (?, ?, ?)`,
		userID, sessionID, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark extracted: %w", err)
	}
	return nil
}

func scanFacts(rows *sql.Rows) ([]memory.Fact, error) {
	var facts []memory.Fact
	for rows.Next() {
		var (
			fact memory.Fact
			ns   int64
		)
		if err := rows.Scan(&fact.ID, &fact.Text, &fact.Context, &fact.Importance, &fact.SessionID, &ns); err != nil {
			return nil, fmt.Errorf("sqlite: scan fact: %w", err)
		}
		fact.ExtractedAt = time.Unix(0, ns).UTC()
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan fact rows: %w", err)
	}
	return facts, nil
}

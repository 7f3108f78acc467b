package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tbellamy/membank/internal/memory"
)

// AppendTurn implements memory.Store.
func (s *store) AppendTurn(ctx context.Context, turn memory.Turn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO turns (user_id, session_id, role, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		turn.UserID, turn.SessionID, string(turn.Role), turn.Text, turn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append turn: %w", err)
	}
	return nil
}

// SessionTurns implements memory.Store.
func (s *store) SessionTurns(ctx context.Context, userID, sessionID string) ([]memory.Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, session_id, role, text, created_at
		 FROM turns WHERE user_id = $1 AND session_id = $2 ORDER BY seq`,
		userID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load session turns: %w", err)
	}
	defer rows.Close()

	var turns []memory.Turn
	for rows.Next() {
		var (
			turn memory.Turn
			role string
		)
		if err := rows.Scan(&turn.UserID, &turn.SessionID, &role, &turn.Text, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan turn: %w", err)
		}
		turn.Role = memory.Role(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate turn rows: %w", err)
	}
	return turns, nil
}

// AppendFacts implements memory.Store. The batch commits atomically.
func (s *store) AppendFacts(ctx context.Context, userID string, facts []memory.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin append facts: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, f := range facts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO facts (id, user_id, fact, context, importance, session_id, extracted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, userID, f.Text, f.Context, f.Importance, f.SessionID, f.ExtractedAt,
		); err != nil {
			return fmt.Errorf("postgres: insert fact: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit facts: %w", err)
	}
	return nil
}

// Facts implements memory.Store.
func (s *store) Facts(ctx context.Context, userID string) ([]memory.Fact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, fact, context, importance, session_id, extracted_at
		 FROM facts WHERE user_id = $1 ORDER BY seq`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load facts: %w", err)
	}
	defer rows.Close()

	var facts []memory.Fact
	for rows.Next() {
		var fact memory.Fact
		if err := rows.Scan(&fact.ID, &fact.Text, &fact.Context, &fact.Importance, &fact.SessionID, &fact.ExtractedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan fact: %w", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate fact rows: %w", err)
	}
	return facts, nil
}

// FactCount implements memory.Store.
func (s *store) FactCount(ctx context.Context, userID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM facts WHERE user_id = $1`, userID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count facts: %w", err)
	}
	return count, nil
}

// DirtySessions implements memory.Store.
func (s *store) DirtySessions(ctx context.Context, idleBefore time.Time) ([]memory.SessionRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.user_id, t.session_id, MAX(t.created_at) AS last_turn
		 FROM turns t
		 LEFT JOIN extraction_marks m
			ON m.user_id = t.user_id AND m.session_id = t.session_id
		 GROUP BY t.user_id, t.session_id, m.extracted_at
		 HAVING MAX(t.created_at) < $1
			AND (m.extracted_at IS NULL OR MAX(t.created_at) > m.extracted_at)
		 ORDER BY t.user_id, t.session_id`,
		idleBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list dirty sessions: %w", err)
	}
	defer rows.Close()

	var refs []memory.SessionRef
	for rows.Next() {
		var ref memory.SessionRef
		if err := rows.Scan(&ref.UserID, &ref.SessionID, &ref.LastTurn); err != nil {
			return nil, fmt.Errorf("postgres: scan session ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate session rows: %w", err)
	}
	return refs, nil
}

// MarkExtracted implements memory.Store.
func (s *store) MarkExtracted(ctx context.Context, userID, sessionID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_marks (user_id, session_id, extracted_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, session_id)
		 DO UPDATE SET extracted_at = EXCLUDED.extracted_at`,
		userID, sessionID, at,
	)
	if err != nil {
		return fmt.Errorf("postgres: mark extracted: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStore_SessionTurnsFiltersAndOrders(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	turns := []Turn{
		{UserID: "u1", SessionID: "s1", Role: RoleUser, Text: "first", Timestamp: base},
		{UserID: "u1", SessionID: "s2", Role: RoleUser, Text: "other session", Timestamp: base.Add(time.Second)},
		{UserID: "u1", SessionID: "s1", Role: RoleAssistant, Text: "second", Timestamp: base.Add(2 * time.Second)},
		{UserID: "u2", SessionID: "s1", Role: RoleUser, Text: "other user", Timestamp: base.Add(3 * time.Second)},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.SessionTurns(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("session turns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Errorf("order wrong: %q, %q", got[0].Text, got[1].Text)
	}

	if got, _ := s.SessionTurns(ctx, "u1", "nope"); len(got) != 0 {
		t.Errorf("unknown session returned %d turns", len(got))
	}
	if got, _ := s.SessionTurns(ctx, "ghost", "s1"); len(got) != 0 {
		t.Errorf("unknown user returned %d turns", len(got))
	}
}

func TestInMemoryStore_FactsAreCopied(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.AppendFacts(ctx, "u1", []Fact{{ID: "f1", Text: "original"}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	facts, err := s.Facts(ctx, "u1")
	if err != nil {
		t.Fatalf("facts: %v", err)
	}
	facts[0].Text = "mutated"

	again, _ := s.Facts(ctx, "u1")
	if again[0].Text != "original" {
		t.Error("store returned aliased slice; caller mutation leaked")
	}

	n, _ := s.FactCount(ctx, "u1")
	if n != 1 {
		t.Errorf("fact count = %d, want 1", n)
	}
}

func TestInMemoryStore_DirtySessions(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Idle session, never extracted: dirty.
	_ = s.AppendTurn(ctx, Turn{UserID: "u1", SessionID: "old", Timestamp: base})
	// Idle session, extracted after its last turn: clean.
	_ = s.AppendTurn(ctx, Turn{UserID: "u1", SessionID: "done", Timestamp: base})
	_ = s.MarkExtracted(ctx, "u1", "done", base.Add(time.Minute))
	// Recent session: not idle yet.
	_ = s.AppendTurn(ctx, Turn{UserID: "u1", SessionID: "fresh", Timestamp: base.Add(time.Hour)})

	refs, err := s.DirtySessions(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("dirty sessions: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d dirty sessions, want 1: %+v", len(refs), refs)
	}
	if refs[0].SessionID != "old" || refs[0].UserID != "u1" {
		t.Errorf("wrong session flagged: %+v", refs[0])
	}
}

func TestInMemoryStore_ReExtractionAfterNewTurns(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_ = s.AppendTurn(ctx, Turn{UserID: "u1", SessionID: "s1", Timestamp: base})
	_ = s.MarkExtracted(ctx, "u1", "s1", base.Add(time.Minute))
	// A turn after the mark makes the session dirty again.
	_ = s.AppendTurn(ctx, Turn{UserID: "u1", SessionID: "s1", Timestamp: base.Add(2 * time.Minute)})

	refs, err := s.DirtySessions(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("dirty sessions: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d dirty sessions, want 1", len(refs))
	}
}

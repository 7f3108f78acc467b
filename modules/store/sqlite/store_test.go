package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbellamy/membank/internal/core"
	"github.com/tbellamy/membank/internal/memory"
)

// newTestStore provisions a module against a temp database.
func newTestStore(t *testing.T) memory.Store {
	t.Helper()

	m := &Module{config: Config{Path: filepath.Join(t.TempDir(), "test.db")}}
	m.config.defaults()

	appCtx := core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir())
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	return m.Store()
}

func TestModuleInfo(t *testing.T) {
	t.Parallel()

	m := &Module{}
	info := m.ModuleInfo()
	if info.ID != "store.sqlite" {
		t.Errorf("ID = %q", info.ID)
	}
	if _, ok := info.New().(*Module); !ok {
		t.Error("New() should return *Module")
	}
}

func TestConfigure(t *testing.T) {
	t.Parallel()

	m := &Module{}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("busy_timeout: 100"), &node); err != nil {
		t.Fatal(err)
	}
	if err := m.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if m.config.BusyTimeout != 100 {
		t.Errorf("busy_timeout = %d", m.config.BusyTimeout)
	}
	if !m.config.walEnabled() {
		t.Error("WAL should default to enabled")
	}
}

func TestTurnsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	turns := []memory.Turn{
		{UserID: "alice", SessionID: "s1", Role: memory.RoleUser, Text: "I bake bread", Timestamp: base},
		{UserID: "alice", SessionID: "s1", Role: memory.RoleAssistant, Text: "Nice!", Timestamp: base.Add(time.Minute)},
		{UserID: "alice", SessionID: "s2", Role: memory.RoleUser, Text: "other session", Timestamp: base},
		{UserID: "bob", SessionID: "s1", Role: memory.RoleUser, Text: "other user", Timestamp: base},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	got, err := s.SessionTurns(ctx, "alice", "s1")
	if err != nil {
		t.Fatalf("SessionTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("turns = %d, want 2", len(got))
	}
	if got[0].Text != "I bake bread" || got[1].Text != "Nice!" {
		t.Errorf("order wrong: %+v", got)
	}
	if !got[0].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, base)
	}
	if got[0].Role != memory.RoleUser {
		t.Errorf("role = %q", got[0].Role)
	}

	empty, err := s.SessionTurns(ctx, "alice", "nope")
	if err != nil {
		t.Fatalf("SessionTurns empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no turns, got %d", len(empty))
	}
}

func TestFactsRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)

	facts := []memory.Fact{
		{ID: "f1", Text: "Works at a bakery", Context: "career", Importance: 7, SessionID: "s1", ExtractedAt: at},
		{ID: "f2", Text: "Allergic to peanuts", Context: "health", Importance: 9, SessionID: "s1", ExtractedAt: at},
	}
	if err := s.AppendFacts(ctx, "alice", facts); err != nil {
		t.Fatalf("AppendFacts: %v", err)
	}

	got, err := s.Facts(ctx, "alice")
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("facts = %d, want 2", len(got))
	}
	if got[0].ID != "f1" || got[0].Importance != 7 || got[0].Context != "career" {
		t.Errorf("fact = %+v", got[0])
	}
	if !got[1].ExtractedAt.Equal(at) {
		t.Errorf("extracted_at = %v, want %v", got[1].ExtractedAt, at)
	}

	count, err := s.FactCount(ctx, "alice")
	if err != nil {
		t.Fatalf("FactCount: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	other, err := s.FactCount(ctx, "bob")
	if err != nil {
		t.Fatalf("FactCount bob: %v", err)
	}
	if other != 0 {
		t.Errorf("bob count = %d, want 0", other)
	}
}

func TestDirtySessions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// idle: last turn an hour ago, never extracted.
	_ = s.AppendTurn(ctx, memory.Turn{UserID: "alice", SessionID: "idle", Role: memory.RoleUser, Text: "a", Timestamp: base})
	// active: turn is newer than the idle cutoff.
	_ = s.AppendTurn(ctx, memory.Turn{UserID: "alice", SessionID: "active", Role: memory.RoleUser, Text: "b", Timestamp: base.Add(50 * time.Minute)})
	// done: idle but already extracted after its last turn.
	_ = s.AppendTurn(ctx, memory.Turn{UserID: "bob", SessionID: "done", Role: memory.RoleUser, Text: "c", Timestamp: base})
	if err := s.MarkExtracted(ctx, "bob", "done", base.Add(time.Minute)); err != nil {
		t.Fatalf("MarkExtracted: %v", err)
	}

	refs, err := s.DirtySessions(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("DirtySessions: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want one", refs)
	}
	if refs[0].UserID != "alice" || refs[0].SessionID != "idle" {
		t.Errorf("ref = %+v", refs[0])
	}
	if !refs[0].LastTurn.Equal(base) {
		t.Errorf("last turn = %v, want %v", refs[0].LastTurn, base)
	}

	// New turn after the mark makes the session dirty again.
	_ = s.AppendTurn(ctx, memory.Turn{UserID: "bob", SessionID: "done", Role: memory.RoleUser, Text: "d", Timestamp: base.Add(2 * time.Minute)})
	refs, err = s.DirtySessions(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("DirtySessions again: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("refs = %+v, want two", refs)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")
	appCtx := core.NewAppContext(slog.New(slog.DiscardHandler), t.TempDir())

	for range 2 {
		m := &Module{config: Config{Path: path}}
		m.config.defaults()
		if err := m.Provision(appCtx); err != nil {
			t.Fatalf("Provision: %v", err)
		}
		if err := m.Stop(context.Background()); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	}
}

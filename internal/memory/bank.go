package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbellamy/membank/internal/observability"
	"github.com/tbellamy/membank/internal/provider"
)

// ErrEmptyUserID is returned by AddTurn when no user ID is given.
// It is the only input validation the bank performs.
var ErrEmptyUserID = errors.New("memory: user_id must not be empty")

const (
	defaultMaxSearchResults = 5
	defaultFallbackResults  = 3
)

// Config assembles a Bank. Provider is required; everything else has a
// working default.
type Config struct {
	// Store holds turns and facts. Defaults to a fresh InMemoryStore.
	Store Store

	// Provider performs the extraction and ranking completions.
	Provider provider.Provider

	// Logger receives recovered extraction/search failures.
	Logger *slog.Logger

	// Metrics, when set, records operation counters and latencies.
	Metrics *observability.Metrics

	// Events, when set, receives one event per bank operation.
	Events *Broker

	// MaxSearchResults caps the ranked path. Defaults to 5.
	MaxSearchResults int

	// FallbackResults caps the degraded path. Defaults to 3.
	FallbackResults int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Bank maintains per-user turn history and facts, and delegates the
// intelligence — fact extraction and relevance ranking — to its provider.
// Its own responsibilities are turn bookkeeping, request/response framing
// (fence stripping, strict JSON decode), and graceful degradation when
// the model output is not well formed.
type Bank struct {
	store    Store
	provider provider.Provider
	logger   *slog.Logger
	metrics  *observability.Metrics
	events   *Broker
	tracer   trace.Tracer
	now      func() time.Time

	maxSearchResults int
	fallbackResults  int
}

// NewBank creates a Bank from the given config.
func NewBank(cfg Config) (*Bank, error) {
	if cfg.Provider == nil {
		return nil, errors.New("memory: provider is required")
	}
	if cfg.Store == nil {
		cfg.Store = NewInMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = defaultMaxSearchResults
	}
	if cfg.FallbackResults <= 0 {
		cfg.FallbackResults = defaultFallbackResults
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Bank{
		store:            cfg.Store,
		provider:         cfg.Provider,
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
		events:           cfg.Events,
		tracer:           otel.Tracer(observability.TracerName),
		now:              cfg.Now,
		maxSearchResults: cfg.MaxSearchResults,
		fallbackResults:  cfg.FallbackResults,
	}, nil
}

// Store exposes the underlying store, primarily for the cron sweep.
func (b *Bank) Store() Store {
	return b.store
}

// Provider exposes the configured provider, for health reporting.
func (b *Bank) Provider() provider.Provider {
	return b.provider
}

// AddTurn appends a turn to the user's history. Unknown users are created
// implicitly; the only validation is a non-empty user ID.
func (b *Bank) AddTurn(ctx context.Context, userID, sessionID string, role Role, text string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	turn := Turn{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		Timestamp: b.now(),
	}
	if err := b.store.AppendTurn(ctx, turn); err != nil {
		return fmt.Errorf("memory: append turn: %w", err)
	}

	if b.metrics != nil {
		b.metrics.TurnsTotal.Inc()
	}
	b.publish(Event{Type: EventTurnAdded, UserID: userID, SessionID: sessionID, At: turn.Timestamp})
	return nil
}

// ExtractFacts derives facts from the session's turns and appends them to
// the user's collection. A session with no turns yields an empty list and
// a nil error. Provider or parse failures yield an empty list and an
// informational error; the fact collection is left unchanged and the
// process never terminates on this path.
func (b *Bank) ExtractFacts(ctx context.Context, userID, sessionID string) ([]Fact, error) {
	ctx, span := b.tracer.Start(ctx, "memory.ExtractFacts", trace.WithAttributes(
		attribute.String("memory.user_id", userID),
		attribute.String("memory.session_id", sessionID),
	))
	defer span.End()
	start := b.now()

	turns, err := b.store.SessionTurns(ctx, userID, sessionID)
	if err != nil {
		return nil, b.extractionFailed(span, start, fmt.Errorf("memory: load session turns: %w", err))
	}
	if len(turns) == 0 {
		b.observeExtraction(observability.StatusEmpty, start)
		return nil, nil
	}

	prompt := fmt.Sprintf(extractionPrompt, transcript(turns))
	resp, err := b.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, b.extractionFailed(span, start, fmt.Errorf("memory: extraction call: %w", err))
	}

	items, err := parseExtraction(resp.Content)
	if err != nil {
		return nil, b.extractionFailed(span, start, err)
	}

	extractedAt := b.now()
	facts := make([]Fact, 0, len(items))
	for _, it := range items {
		facts = append(facts, Fact{
			ID:          uuid.NewString(),
			Text:        it.Fact,
			Context:     it.Context,
			Importance:  it.Importance,
			SessionID:   sessionID,
			ExtractedAt: extractedAt,
		})
	}

	if len(facts) > 0 {
		if err := b.store.AppendFacts(ctx, userID, facts); err != nil {
			return nil, b.extractionFailed(span, start, fmt.Errorf("memory: append facts: %w", err))
		}
	}
	if err := b.store.MarkExtracted(ctx, userID, sessionID, extractedAt); err != nil {
		b.logger.Warn("memory: extraction mark not recorded", "user", userID, "session", sessionID, "error", err)
	}

	span.SetAttributes(attribute.Int("memory.facts", len(facts)))
	b.observeExtraction(observability.StatusOK, start)
	if b.metrics != nil {
		b.metrics.FactsTotal.Add(float64(len(facts)))
	}
	b.publish(Event{Type: EventFactsExtracted, UserID: userID, SessionID: sessionID, Count: len(facts), At: extractedAt})
	return facts, nil
}

// SearchFacts ranks the user's facts against the query. An empty store
// yields an empty, non-degraded result. When facts exist the result is
// never empty: if the ranking call fails or its output is malformed, the
// first stored facts are returned unscored with Degraded set. Failures
// are logged, never returned.
func (b *Bank) SearchFacts(ctx context.Context, userID, query string) SearchResult {
	ctx, span := b.tracer.Start(ctx, "memory.SearchFacts", trace.WithAttributes(
		attribute.String("memory.user_id", userID),
	))
	defer span.End()
	start := b.now()

	facts, err := b.store.Facts(ctx, userID)
	if err != nil {
		b.logger.Error("memory: load facts for search", "user", userID, "error", err)
		span.SetStatus(codes.Error, err.Error())
		b.observeSearch(observability.OutcomeEmpty, start)
		return SearchResult{}
	}
	if len(facts) == 0 {
		b.observeSearch(observability.OutcomeEmpty, start)
		return SearchResult{}
	}

	ranked, err := b.rank(ctx, query, facts)
	if err != nil {
		b.logger.Warn("memory: ranking failed, serving degraded results",
			"user", userID, "error", err)
		span.RecordError(err)
		result := b.fallback(facts)
		span.SetAttributes(attribute.Bool("memory.degraded", true))
		b.observeSearch(observability.OutcomeDegraded, start)
		b.publish(Event{Type: EventSearchServed, UserID: userID, Count: len(result.Facts), Degraded: true, At: b.now()})
		return result
	}

	span.SetAttributes(attribute.Int("memory.results", len(ranked)))
	b.observeSearch(observability.OutcomeRanked, start)
	b.publish(Event{Type: EventSearchServed, UserID: userID, Count: len(ranked), At: b.now()})
	return SearchResult{Facts: ranked}
}

// rank runs the ranking completion and maps its output back onto stored
// facts. Output rows are matched to stored facts by fact text so that
// IDs, session attribution, and timestamps survive the round trip; rows
// matching no stored fact are dropped, so a ranked result never holds
// more facts than the store does. A response where nothing matches is
// treated as malformed and degrades like any other ranking failure.
func (b *Bank) rank(ctx context.Context, query string, facts []Fact) ([]ScoredFact, error) {
	factsJSON, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("memory: encode facts: %w", err)
	}

	prompt := fmt.Sprintf(rankingPrompt, query, factsJSON, b.maxSearchResults)
	resp, err := b.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("memory: ranking call: %w", err)
	}

	items, err := parseRanking(resp.Content, b.maxSearchResults)
	if err != nil {
		return nil, err
	}

	byText := make(map[string]Fact, len(facts))
	for _, f := range facts {
		byText[f.Text] = f
	}

	scored := make([]ScoredFact, 0, len(items))
	for _, it := range items {
		fact, ok := byText[it.Fact]
		if !ok {
			// The model paraphrased or invented this entry. Only stored
			// facts are served, so drop it.
			continue
		}
		// Each stored fact appears at most once, even if the model
		// duplicated it.
		delete(byText, it.Fact)

		score := it.RelevanceScore
		if score == 0 {
			score = 1
		}
		scored = append(scored, ScoredFact{Fact: fact, RelevanceScore: score})
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("%w: no ranked entry matches a stored fact", ErrMalformedResponse)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored, nil
}

// fallback returns the first stored facts, unscored, as the degraded result.
func (b *Bank) fallback(facts []Fact) SearchResult {
	n := min(b.fallbackResults, len(facts))
	scored := make([]ScoredFact, 0, n)
	for _, f := range facts[:n] {
		scored = append(scored, ScoredFact{Fact: f})
	}
	return SearchResult{Facts: scored, Degraded: true}
}

// Summary returns a fixed-format human-readable description of the user's
// stored facts. Store errors degrade to the no-memories message.
func (b *Bank) Summary(ctx context.Context, userID string) string {
	facts, err := b.store.Facts(ctx, userID)
	if err != nil {
		b.logger.Error("memory: load facts for summary", "user", userID, "error", err)
	}
	if len(facts) == 0 {
		return "No memories found for this user."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "User has %d stored memories:\n", len(facts))
	for i, f := range facts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(f.Text)
	}
	return sb.String()
}

// transcript renders turns as one "role: text" line each, in insertion order.
func transcript(turns []Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func (b *Bank) extractionFailed(span trace.Span, start time.Time, err error) error {
	b.logger.Warn("memory: extraction failed", "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	b.observeExtraction(observability.StatusFailed, start)
	return err
}

func (b *Bank) observeExtraction(status string, start time.Time) {
	if b.metrics != nil {
		b.metrics.ObserveExtraction(status, b.now().Sub(start))
	}
}

func (b *Bank) observeSearch(outcome string, start time.Time) {
	if b.metrics != nil {
		b.metrics.ObserveSearch(outcome, b.now().Sub(start))
	}
}

func (b *Bank) publish(evt Event) {
	if b.events != nil {
		b.events.Publish(evt)
	}
}

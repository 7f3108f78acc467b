package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbellamy/membank/internal/memory"
)

// Extractor is the subset of the memory bank the sweep job needs.
type Extractor interface {
	Store() memory.Store
	ExtractFacts(ctx context.Context, userID, sessionID string) ([]memory.Fact, error)
}

// ExtractionSweepJob extracts facts from sessions that have been idle
// longer than MaxIdle and still carry turns newer than their last
// extraction mark. Per-session failures are logged and skipped; the
// sweep itself only fails when the store cannot be read.
type ExtractionSweepJob struct {
	Bank         Extractor
	MaxIdle      time.Duration
	Logger       *slog.Logger
	ScheduleExpr string           // empty = default "*/10 * * * *"
	Now          func() time.Time // nil = time.Now
}

// Compile-time interface check.
var _ Job = (*ExtractionSweepJob)(nil)

// Name implements Job.
func (j *ExtractionSweepJob) Name() string {
	return "extraction_sweep"
}

// Schedule implements Job.
func (j *ExtractionSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run sweeps idle, unextracted sessions through the bank.
func (j *ExtractionSweepJob) Run(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	refs, err := j.Bank.Store().DirtySessions(ctx, now().Add(-j.MaxIdle))
	if err != nil {
		return fmt.Errorf("cron: listing dirty sessions: %w", err)
	}

	var extracted int
	for _, ref := range refs {
		if ctx.Err() != nil {
			return fmt.Errorf("cron: extraction sweep cancelled: %w", ctx.Err())
		}

		facts, err := j.Bank.ExtractFacts(ctx, ref.UserID, ref.SessionID)
		if err != nil {
			j.Logger.Warn("cron: sweep extraction failed",
				"user", ref.UserID,
				"session", ref.SessionID,
				"error", err,
			)
			continue
		}
		extracted += len(facts)
	}

	if len(refs) > 0 {
		j.Logger.Info("cron: extraction sweep finished",
			"sessions", len(refs),
			"facts", extracted,
		)
	}
	return nil
}

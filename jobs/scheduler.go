package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

const runTimeout = 5 * time.Minute

// Schedule adds job to c under spec. Each run gets its own timeout derived
// from ctx, and overlapping runs of the same job are skipped.
func Schedule(ctx context.Context, c *cron.Cron, spec string, job Job, log *slog.Logger) error {
	run := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		runOnce(ctx, job, log)
	}))
	if _, err := c.AddJob(spec, run); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
	}
	log.Info("✅ Cron job scheduled", slog.String("job", job.Name()), slog.String("spec", spec))
	return nil
}

func runOnce(ctx context.Context, job Job, log *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Error("cron job failed", slog.String("job", job.Name()), slog.Any("error", err))
		return
	}
	log.Debug("cron job finished", slog.String("job", job.Name()), slog.Duration("took", time.Since(start)))
}

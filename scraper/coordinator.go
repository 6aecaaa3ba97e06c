package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/aluiziolira/go-scrape-opinions/pipeline"
)

// sessionRunner is satisfied by *Worker.
type sessionRunner interface {
	Run(ctx context.Context, store *pipeline.ResultStore, session models.SessionConfig) []State
}

// Coordinator launches one worker per session, staggering the starts, and
// waits for all of them.
type Coordinator struct {
	runner  sessionRunner
	stagger time.Duration
	logger  *slog.Logger
}

// NewCoordinator returns a coordinator that starts sessions at most once per
// stagger interval. A zero stagger starts them all at once.
func NewCoordinator(worker *Worker, stagger time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{runner: worker, stagger: stagger, logger: logger}
}

// RunAll runs every session concurrently and returns once all of them have
// finished. A failing session never cancels its siblings, so the returned
// store holds one result per started session. Session names must be unique.
func (c *Coordinator) RunAll(ctx context.Context, sessions []models.SessionConfig) (*pipeline.ResultStore, error) {
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if s.Name == "" {
			return nil, fmt.Errorf("session without a name")
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate session name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	store := pipeline.NewResultStore()
	limit := rate.Inf
	if c.stagger > 0 {
		limit = rate.Every(c.stagger)
	}
	limiter := rate.NewLimiter(limit, 1)

	var g errgroup.Group
	started := 0
	for _, session := range sessions {
		if err := limiter.Wait(ctx); err != nil {
			c.logger.Warn("not starting remaining sessions",
				slog.Int("skipped", len(sessions)-started),
				slog.Any("error", err),
			)
			break
		}
		started++
		session := session
		c.logger.Info("starting session", slog.String("session", session.Name))
		g.Go(func() error {
			c.runner.Run(ctx, store, session)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("all sessions finished",
		slog.Int("started", started),
		slog.Int("results", store.Len()),
	)
	return store, nil
}

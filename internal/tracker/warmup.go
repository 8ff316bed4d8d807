package tracker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/opsshop/jiratrack/internal/cache"
	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/models"
)

// warmupParallelism bounds the concurrent fetches at startup.
const warmupParallelism = 4

// Events receives reconcile lifecycle notifications. May be nil.
type Events interface {
	PublishReconcile(phase, project, statusID string)
}

// Warmup primes the cache with the home project's issues for every
// catalog status except the all-active sentinel. Individual status
// failures are logged and skipped; warmup never fails the application.
func Warmup(ctx context.Context, t jira.Tracker, c *cache.Store, project string, events Events, logger *slog.Logger) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(warmupParallelism)

	for _, status := range models.StatusCatalog()[1:] {
		status := status
		g.Go(func() error {
			if events != nil {
				events.PublishReconcile("started", project, status.ID)
			}
			issues, err := t.Search(gCtx, jira.StatusJQL(project, status.ID), pageCap)
			if err != nil {
				logger.Warn("warmup fetch failed",
					slog.String("project", project),
					slog.String("status", status.ID),
					slog.String("error", err.Error()))
				return nil
			}
			c.PutUntracked(project, status.ID, issues)
			if events != nil {
				events.PublishReconcile("finished", project, status.ID)
			}
			return nil
		})
	}

	_ = g.Wait()
	logger.Info("cache warmup complete", slog.String("project", project))
}

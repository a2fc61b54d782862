package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// CatalogReloader is the slice of the resolver the job needs.
type CatalogReloader interface {
	Reload(ctx context.Context) error
	Len() int
}

// CatalogRefreshJob keeps the article code map warm so request-path misses
// stay rare after catalog changes.
type CatalogRefreshJob struct {
	resolver CatalogReloader
	logger   *slog.Logger
}

// NewCatalogRefreshJob constructs the job.
func NewCatalogRefreshJob(resolver CatalogReloader, logger *slog.Logger) *CatalogRefreshJob {
	return &CatalogRefreshJob{resolver: resolver, logger: logger}
}

// Handle processes TaskCatalogRefresh tasks.
func (j *CatalogRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CatalogRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.resolver.Reload(ctx); err != nil {
		j.logger.Error("catalog refresh failed", slog.String("trigger", payload.Trigger), slog.Any("error", err))
		return err
	}
	j.logger.Info("catalog refreshed",
		slog.String("trigger", payload.Trigger),
		slog.Int("mappings", j.resolver.Len()))
	return nil
}

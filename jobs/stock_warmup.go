package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// AggregateRefresher is the slice of the ledger service the warmup needs.
type AggregateRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// StockWarmupJob repopulates the aggregate stock cache so readers after an
// expiry never pay for the full table scan themselves.
type StockWarmupJob struct {
	ledger AggregateRefresher
	logger *slog.Logger
}

// NewStockWarmupJob constructs the job.
func NewStockWarmupJob(ledger AggregateRefresher, logger *slog.Logger) *StockWarmupJob {
	return &StockWarmupJob{ledger: ledger, logger: logger}
}

// Handle processes TaskStockWarmup tasks.
func (j *StockWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StockWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	count, err := j.ledger.RefreshAll(ctx)
	if err != nil {
		j.logger.Error("stock warmup failed", slog.String("trigger", payload.Trigger), slog.Any("error", err))
		return err
	}
	j.logger.Info("stock cache warmed",
		slog.String("trigger", payload.Trigger),
		slog.Int("records", count))
	return nil
}

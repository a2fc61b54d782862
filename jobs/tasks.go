package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogRefresh reloads the article code map from the catalog store.
	TaskCatalogRefresh = "catalog:refresh"
	// TaskStockWarmup repopulates the aggregate stock cache.
	TaskStockWarmup = "stock:warmup"
)

// CatalogRefreshPayload records what triggered the reload.
type CatalogRefreshPayload struct {
	Trigger string `json:"trigger"`
}

// StockWarmupPayload parametrises the cache warmup run.
type StockWarmupPayload struct {
	Trigger string `json:"trigger"`
}

// NewCatalogRefreshTask constructs an Asynq task for a catalog reload.
func NewCatalogRefreshTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(CatalogRefreshPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogRefresh, data), nil
}

// NewStockWarmupTask constructs an Asynq task for an aggregate cache warmup.
func NewStockWarmupTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(StockWarmupPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockWarmup, data), nil
}

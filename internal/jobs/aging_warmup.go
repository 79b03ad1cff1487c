package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/reports"
)

// AgingWarmupJob pre-populates the receivables and payables aging caches so
// dashboard requests hit Redis instead of scanning open documents.
type AgingWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
}

// NewAgingWarmupJob wires dependencies for the warmup handler.
func NewAgingWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *AgingWarmupJob {
	return &AgingWarmupJob{Reports: reportsSvc, Logger: logger}
}

// Handle processes TaskAgingWarmup tasks.
func (j *AgingWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("aging warmup: handler not configured")
	}
	var payload AgingWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	if payload.RequestedBy != "" {
		logger = logger.With(slog.String("requested_by", payload.RequestedBy))
	}
	started := time.Now()
	if err := j.Reports.Warm(ctx); err != nil {
		logger.Error("aging warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("aging caches warmed", slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *AgingWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAgingWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAgingWarmup))
}

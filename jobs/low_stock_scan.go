package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/model"
)

// LowStockFlagger marks low-stock materials as needing a check.
type LowStockFlagger interface {
	FlagLowStock(ctx context.Context) ([]model.Material, error)
}

// LowStockScanJob flags materials whose quantity fell to their minimum.
type LowStockScanJob struct {
	Inventory LowStockFlagger
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(inventory LowStockFlagger, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Inventory: inventory, Logger: logger, Metrics: metrics}
}

// Handle processes low stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Inventory == nil {
		return errors.New("low stock scan: handler not configured")
	}
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	m := metricsOr(j.Metrics)
	tracker := m.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskLowStockScan).With(slog.String("trigger", payload.Trigger))
	flagged, err := j.Inventory.FlagLowStock(ctx)
	if err != nil {
		logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	m.AddLowStock(len(flagged))
	names := make([]string, 0, len(flagged))
	for _, mat := range flagged {
		names = append(names, mat.Name)
	}
	logger.Info("low stock scan completed", slog.Int("flagged", len(flagged)), slog.Any("materials", names))
	return nil
}

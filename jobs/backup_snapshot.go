package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
	"github.com/printdesk/printdesk/internal/platform/blob"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Snapshotter writes a stored backup.
type Snapshotter interface {
	Snapshot(ctx context.Context) (blob.Info, error)
}

// BackupSnapshotJob stores a backup file; pruning happens inside Snapshot.
type BackupSnapshotJob struct {
	Backups Snapshotter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBackupSnapshotJob wires dependencies for the snapshot handler.
func NewBackupSnapshotJob(backups Snapshotter, logger *slog.Logger, metrics *jobmetrics.Metrics) *BackupSnapshotJob {
	return &BackupSnapshotJob{Backups: backups, Logger: logger, Metrics: metrics}
}

// Handle processes backup snapshot tasks.
func (j *BackupSnapshotJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Backups == nil {
		return errors.New("backup snapshot: handler not configured")
	}
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	tracker := metricsOr(j.Metrics).Track(TaskBackupSnapshot)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskBackupSnapshot).With(slog.String("trigger", payload.Trigger))
	start := time.Now()
	info, err := j.Backups.Snapshot(ctx)
	if err != nil {
		logger.Error("backup snapshot failed", slog.Any("error", err))
		return err
	}
	logger.Info("backup snapshot stored",
		slog.String("key", info.Key),
		slog.Int64("size", info.Size),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

func metricsOr(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

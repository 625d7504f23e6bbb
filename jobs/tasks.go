package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackupSnapshot stores a backup file and prunes old ones.
	TaskBackupSnapshot = "backup:snapshot"
	// TaskLowStockScan flags materials at or below their minimum stock.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// ErrUnknownTask indicates a task name with no registered builder.
var ErrUnknownTask = errors.New("jobs: unknown task")

// ScheduledPayload carries scheduling metadata shared by the periodic tasks.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Trigger      string    `json:"trigger,omitempty"`
}

// TaskNames lists the tasks that may be enqueued by name.
var TaskNames = []string{TaskBackupSnapshot, TaskLowStockScan}

// NewTask builds the named task. trigger records who asked for it (cron,
// api, cli) and shows up in worker logs.
func NewTask(name string, at time.Time, trigger string) (*asynq.Task, error) {
	known := false
	for _, n := range TaskNames {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at.UTC(), Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(name, body, asynq.Queue(QueueDefault)), nil
}

func decodePayload(t *asynq.Task) (ScheduledPayload, error) {
	var payload ScheduledPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return payload, nil
}

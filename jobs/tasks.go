package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPendingSweep expires stale pending cash transactions.
	TaskPendingSweep = "ledger:pending_sweep"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// PendingSweepPayload carries the retention window for the sweep.
type PendingSweepPayload struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

// NewPendingSweepTask constructs an Asynq task.
func NewPendingSweepTask(ttl time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(PendingSweepPayload{TTLSeconds: int64(ttl.Seconds())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPendingSweep, data), nil
}

// IdempotencyCleanupPayload carries the retention window for key pruning.
type IdempotencyCleanupPayload struct {
	RetentionHours int64 `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int64(retention.Hours())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

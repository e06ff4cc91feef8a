package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// StaleDeleter is the ledger operation the sweep needs.
type StaleDeleter interface {
	DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// PendingSweepJob removes pending cash transactions nobody confirmed
// within the retention window. Their stock was never decremented, so
// deleting the record is the whole cleanup.
type PendingSweepJob struct {
	ledger StaleDeleter
	logger *slog.Logger
}

// NewPendingSweepJob constructs the job.
func NewPendingSweepJob(ledger StaleDeleter, logger *slog.Logger) *PendingSweepJob {
	return &PendingSweepJob{ledger: ledger, logger: logger}
}

// Handle processes TaskPendingSweep tasks.
func (j *PendingSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PendingSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.TTLSeconds <= 0 {
		return asynq.SkipRetry
	}
	cutoff := time.Now().Add(-time.Duration(payload.TTLSeconds) * time.Second)
	removed, err := j.ledger.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 && j.logger != nil {
		j.logger.Info("swept stale pending transactions",
			slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	}
	return nil
}

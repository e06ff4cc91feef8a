package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubStaleDeleter struct {
	cutoff  time.Time
	removed int64
	err     error
	calls   int
}

func (d *stubStaleDeleter) DeleteStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	d.calls++
	d.cutoff = cutoff
	return d.removed, d.err
}

func TestPendingSweepHandle(t *testing.T) {
	deleter := &stubStaleDeleter{removed: 3}
	job := NewPendingSweepJob(deleter, nil)

	task, err := NewPendingSweepTask(24 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, deleter.calls)

	wantCutoff := time.Now().Add(-24 * time.Hour)
	require.WithinDuration(t, wantCutoff, deleter.cutoff, 5*time.Second)
}

func TestPendingSweepSkipsBadPayload(t *testing.T) {
	deleter := &stubStaleDeleter{}
	job := NewPendingSweepJob(deleter, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskPendingSweep, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskPendingSweep, []byte(`{"ttl_seconds":0}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	require.Zero(t, deleter.calls)
}

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesTasks(t *testing.T) {
	var processed int64
	q := NewQueue("test", func(_ context.Context, task Task) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Task{ID: "t", Kind: "warm"}))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 5
	}, time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedTask(t *testing.T) {
	var attempts int64
	q := NewQueue("test", func(_ context.Context, task Task) error {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{ID: "t", Kind: "warm"}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Task) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Task{ID: "t"}))
}

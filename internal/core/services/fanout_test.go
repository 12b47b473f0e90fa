package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut_PreservesOrder(t *testing.T) {
	// Later items finish first.
	outcomes, err := FanOut(context.Background(), 4, 8, false, func(_ context.Context, i int) (int, error) {
		time.Sleep(time.Duration(8-i) * time.Millisecond)
		return i * 10, nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 8)
	for i, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.Equal(t, i*10, o.Value)
	}
}

func TestFanOut_ConcurrencyBound(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		wantMax     int32
	}{
		{name: "sequential", concurrency: 1, wantMax: 1},
		{name: "zero treated as one", concurrency: 0, wantMax: 1},
		{name: "bounded", concurrency: 3, wantMax: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inFlight, maxInFlight atomic.Int32
			_, err := FanOut(context.Background(), tt.concurrency, 12, false, func(_ context.Context, _ int) (struct{}, error) {
				n := inFlight.Add(1)
				for {
					cur := maxInFlight.Load()
					if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return struct{}{}, nil
			})
			require.NoError(t, err)
			assert.LessOrEqual(t, maxInFlight.Load(), tt.wantMax)
			if tt.wantMax == 1 {
				assert.Equal(t, int32(1), maxInFlight.Load())
			}
		})
	}
}

func TestFanOut_AllItemsInFlightTogether(t *testing.T) {
	const n = 5
	var barrier sync.WaitGroup
	barrier.Add(n)

	done := make(chan struct{})
	go func() {
		_, err := FanOut(context.Background(), n, n, false, func(_ context.Context, _ int) (bool, error) {
			barrier.Done()
			// Every call blocks until all n have started.
			barrier.Wait()
			return true, nil
		})
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("items did not run concurrently")
	}
}

func TestFanOut_AbortOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var cancelled atomic.Bool
	started := make(chan struct{})

	outcomes, err := FanOut(context.Background(), 2, 4, false, func(ctx context.Context, i int) (int, error) {
		if i == 0 {
			<-started
			return 0, boom
		}
		if i == 1 {
			close(started)
		}
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return i, nil
		}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "item 0")
	assert.Nil(t, outcomes)
	assert.True(t, cancelled.Load())
}

func TestFanOut_ContinueOnFailCapturesPerItem(t *testing.T) {
	outcomes, err := FanOut(context.Background(), 3, 5, true, func(_ context.Context, i int) (int, error) {
		if i%2 == 1 {
			return 0, errors.New("odd item")
		}
		return i, nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	for i, o := range outcomes {
		if i%2 == 1 {
			assert.EqualError(t, o.Err, "odd item")
			continue
		}
		assert.NoError(t, o.Err)
		assert.Equal(t, i, o.Value)
	}
}

func TestFanOut_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FanOut(ctx, 2, 3, true, func(ctx context.Context, _ int) (int, error) {
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFanOut_Empty(t *testing.T) {
	outcomes, err := FanOut(context.Background(), 2, 0, false, func(_ context.Context, _ int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrontierEnqueueDequeueFIFO(t *testing.T) {
	t.Parallel()

	f := New(0)
	ctx := context.Background()
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/a"))
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/b"))

	first, err := f.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://www.ics.uci.edu/a", first)
	second, err := f.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, "https://www.ics.uci.edu/b", second)
}

func TestFrontierDedupsAcrossCalls(t *testing.T) {
	t.Parallel()

	f := New(0)
	ctx := context.Background()
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/a"))
	require.False(t, f.Enqueue(ctx, "https://www.ics.uci.edu/a"))

	_, err := f.Dequeue(ctx)
	require.NoError(t, err)
	f.Done("https://www.ics.uci.edu/a")
	require.False(t, f.Enqueue(ctx, "https://www.ics.uci.edu/a"), "dequeued urls stay seen")
	require.Equal(t, 1, f.Seen())
	require.False(t, f.Enqueue(ctx, ""))
}

func TestFrontierConcurrentEnqueueAddsOnce(t *testing.T) {
	t.Parallel()

	f := New(0)
	ctx := context.Background()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.Enqueue(ctx, "https://www.ics.uci.edu/same") {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, added)
	require.Equal(t, 1, f.Pending())
}

func TestFrontierDrainsWhenIdle(t *testing.T) {
	t.Parallel()

	f := New(0)
	_, err := f.Dequeue(context.Background())
	require.ErrorIs(t, err, ErrDrained)
}

func TestFrontierWaitsForInFlightWork(t *testing.T) {
	t.Parallel()

	f := New(0)
	ctx := context.Background()
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/seed"))
	seed, err := f.Dequeue(ctx)
	require.NoError(t, err)

	result := make(chan string, 1)
	go func() {
		next, derr := f.Dequeue(ctx)
		if derr != nil {
			result <- derr.Error()
			return
		}
		result <- next
	}()

	select {
	case got := <-result:
		t.Fatalf("dequeue returned early with %q", got)
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/child"))
	f.Done(seed)
	select {
	case got := <-result:
		require.Equal(t, "https://www.ics.uci.edu/child", got)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return enqueued child")
	}
}

func TestFrontierDoneReleasesWaiters(t *testing.T) {
	t.Parallel()

	f := New(0)
	ctx := context.Background()
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/only"))
	only, err := f.Dequeue(ctx)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, derr := f.Dequeue(ctx)
		errCh <- derr
	}()
	time.Sleep(10 * time.Millisecond)
	f.Done(only)

	select {
	case derr := <-errCh:
		require.ErrorIs(t, derr, ErrDrained)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released after last in-flight url finished")
	}
}

func TestFrontierPageBudget(t *testing.T) {
	t.Parallel()

	f := New(1)
	ctx := context.Background()
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/a"))
	require.True(t, f.Enqueue(ctx, "https://www.ics.uci.edu/b"))
	_, err := f.Dequeue(ctx)
	require.NoError(t, err)
	_, err = f.Dequeue(ctx)
	require.ErrorIs(t, err, ErrDrained)
}

func TestFrontierCancelationErrors(t *testing.T) {
	t.Parallel()

	f := New(0)
	require.True(t, f.Enqueue(context.Background(), "https://www.ics.uci.edu/a"))
	_, err := f.Dequeue(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Dequeue(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, f.Enqueue(ctx, "https://www.ics.uci.edu/b"))
}

func TestFrontierCanceledWithPendingWork(t *testing.T) {
	t.Parallel()

	f := New(0)
	for _, u := range []string{"https://www.ics.uci.edu/", "https://www.cs.uci.edu/", "https://www.stat.uci.edu/"} {
		require.True(t, f.Enqueue(context.Background(), u))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Dequeue(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, f.Pending(), "nothing handed out after cancel")
}

func TestFrontierClose(t *testing.T) {
	t.Parallel()

	f := New(0)
	require.True(t, f.Enqueue(context.Background(), "https://www.ics.uci.edu/a"))
	f.Close()
	_, err := f.Dequeue(context.Background())
	require.ErrorIs(t, err, ErrDrained)
	require.False(t, f.Enqueue(context.Background(), "https://www.ics.uci.edu/b"))
	// Closing twice should be safe.
	f.Close()
}

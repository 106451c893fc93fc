package querycache

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	return NewService(ServiceOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSubscribeDedupesConcurrentFetches(t *testing.T) {
	svc := testService()

	release := make(chan struct{})
	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []int{1, 2, 3}, nil
	}

	e1 := svc.Subscribe("k", fetcher, Options{Enabled: true})
	e2 := svc.Subscribe("k", fetcher, Options{Enabled: true})
	assert.Equal(t, StatusLoading, e1.Status)
	assert.Equal(t, StatusLoading, e2.Status)

	close(release)
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, entry.Status)

	data, ok := Data[[]int](entry)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDisabledKeyNeverFetches(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	entry := svc.Subscribe("k", fetcher, Options{Enabled: false})
	assert.Equal(t, StatusIdle, entry.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestEnabledTransitionTriggersFetch(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "data", nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: false})
	svc.SetEnabled("k", true)

	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidateTriggersImmediateRefetchWhileSubscribed(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	_, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	svc.Invalidate("k")
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	v, ok := Data[int](entry)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidateUnsubscribedKeyRefetchesOnNextSubscribe(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	_, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)
	svc.Unsubscribe("k")

	svc.Invalidate("k")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no subscriber, no refetch")

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	v, ok := Data[int](entry)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestFailedRefetchPreservesCachedData(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return []string{"stale-but-present"}, nil
		}
		return nil, assert.AnError
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	_, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	svc.Invalidate("k")
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	assert.Equal(t, StatusError, entry.Status)
	assert.ErrorIs(t, entry.Err, assert.AnError)
	data, ok := Data[[]string](entry)
	require.True(t, ok, "previous data must survive a failed refetch")
	assert.Equal(t, []string{"stale-but-present"}, data)
}

func TestResubscribeRetriesAfterInitialFetchFailure(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, assert.AnError
		}
		return "recovered", nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, StatusError, entry.Status)
	svc.Unsubscribe("k")

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	entry, err = svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "an errored entry must not pin its error")
	assert.Equal(t, StatusSuccess, entry.Status)
	v, ok := Data[string](entry)
	require.True(t, ok)
	assert.Equal(t, "recovered", v)
}

func TestDropDataOnErrorClearsCachedData(t *testing.T) {
	svc := NewService(ServiceOptions{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		DropDataOnError: true,
	})

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "v1", nil
		}
		return nil, assert.AnError
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	_, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	svc.Invalidate("k")
	entry, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, StatusError, entry.Status)
	assert.Nil(t, entry.Data)
}

func TestInvalidateDuringInflightQueuesOneRefetch(t *testing.T) {
	svc := testService()

	release := make(chan struct{})
	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		n := int(atomic.AddInt32(&calls, 1))
		if n == 1 {
			<-release
		}
		return n, nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true})
	svc.Invalidate("k")
	close(release)

	require.Eventually(t, func() bool {
		entry, ok := svc.Snapshot("k")
		if !ok {
			return false
		}
		v, _ := Data[int](entry)
		return v == 2
	}, time.Second, 5*time.Millisecond, "the write must not be masked by the older in-flight result")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRefetchIntervalPollsWhileSubscribed(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true, RefetchInterval: 10 * time.Millisecond})
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond)

	svc.Unsubscribe("k")
	settled := atomic.LoadInt32(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), settled+1, "polling must stop once unsubscribed")
}

func TestRemoveDropsEntryAndStopsPolling(t *testing.T) {
	svc := testService()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	svc.Subscribe("k", fetcher, Options{Enabled: true, RefetchInterval: 10 * time.Millisecond})
	_, err := svc.Wait(context.Background(), "k")
	require.NoError(t, err)

	svc.Remove("k")
	_, ok := svc.Snapshot("k")
	assert.False(t, ok)
	_, err = svc.Wait(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnknownKey)

	settled := atomic.LoadInt32(&calls)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&calls), "no fetches after removal")
}

func TestWaitUnknownKey(t *testing.T) {
	svc := testService()
	_, err := svc.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

package future

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	amperrors "github.com/amp-labs/amp-agents/errors"
	"github.com/amp-labs/amp-agents/try"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestNew_SuccessOnce(t *testing.T) {
	t.Parallel()

	fut, promise := New[int]()
	assert.False(t, fut.IsDone())

	_, ok := fut.Result()
	assert.False(t, ok)

	promise.Success(1)
	promise.Success(2)
	promise.Failure(errBoom)

	v, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, fut.IsDone())

	res, ok := fut.Result()
	require.True(t, ok)
	assert.Equal(t, 1, res.Value)
}

func TestNew_Failure(t *testing.T) {
	t.Parallel()

	fut, promise := New[string]()
	promise.Complete("ignored", errBoom)

	v, err := fut.Await()
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, v)
}

func TestGo_RecoversPanic(t *testing.T) {
	t.Parallel()

	fut := Go(func() (int, error) {
		panic("bad things")
	})

	_, err := fut.Await()
	require.ErrorIs(t, err, amperrors.ErrPanicRecovery)
	assert.Contains(t, err.Error(), "bad things")
}

func TestAwaitContext(t *testing.T) {
	t.Parallel()

	fut, promise := New[int]()

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := fut.AwaitContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	promise.Success(9)

	v, err := fut.AwaitContext(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestCallbacks(t *testing.T) {
	t.Parallel()

	t.Run("registered before completion", func(t *testing.T) {
		t.Parallel()

		fut, promise := New[int]()

		got := make(chan int, 1)
		results := make(chan try.Try[int], 1)

		fut.OnSuccess(func(v int) { got <- v })
		fut.OnError(func(error) { t.Error("OnError must not fire on success") })
		fut.OnResult(func(r try.Try[int]) { results <- r })

		promise.Success(5)

		assert.Equal(t, 5, <-got)
		assert.Equal(t, 5, (<-results).Value)
	})

	t.Run("registered after completion", func(t *testing.T) {
		t.Parallel()

		fut := Failed[int](errBoom)

		got := make(chan error, 1)

		fut.OnSuccess(func(int) { t.Error("OnSuccess must not fire on failure") })
		fut.OnError(func(err error) { got <- err })

		require.ErrorIs(t, <-got, errBoom)
	})

	t.Run("panicking callback does not affect others", func(t *testing.T) {
		t.Parallel()

		fut := Completed(1)

		var called atomic.Bool

		done := make(chan struct{})

		fut.OnSuccess(func(int) { panic("callback panic") })
		fut.OnSuccess(func(int) {
			called.Store(true)
			close(done)
		})

		<-done
		assert.True(t, called.Load())
	})
}

func TestToChannel(t *testing.T) {
	t.Parallel()

	res := <-Completed("hi").ToChannel()
	require.NoError(t, res.Error)
	assert.Equal(t, "hi", res.Value)
}

func TestMap(t *testing.T) {
	t.Parallel()

	doubled := Map(Completed(21), func(v int) (int, error) {
		return v * 2, nil
	})

	v, err := doubled.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	failed := Map(Failed[int](errBoom), func(v int) (int, error) {
		t.Error("mapper must not run on failure")

		return v, nil
	})

	_, err = failed.Await()
	require.ErrorIs(t, err, errBoom)

	panicked := Map(Completed(1), func(int) (int, error) {
		panic("mapper panic")
	})

	_, err = panicked.Await()
	require.ErrorIs(t, err, amperrors.ErrPanicRecovery)
}

func TestFlatMap_Sequential(t *testing.T) {
	t.Parallel()

	var (
		running atomic.Int32
		overlap atomic.Bool
	)

	step := func(v int) *Future[int] {
		return Go(func() (int, error) {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}

			time.Sleep(5 * time.Millisecond)
			running.Add(-1)

			return v + 1, nil
		})
	}

	fut := Completed(0)
	for range 5 {
		fut = FlatMap(fut, step)
	}

	v, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.False(t, overlap.Load())
}

func TestFlatMap_ShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	step := func(v int) *Future[int] {
		calls.Add(1)

		if v == 1 {
			return Failed[int](errBoom)
		}

		return Completed(v + 1)
	}

	fut := FlatMap(FlatMap(FlatMap(Completed(0), step), step), step)

	_, err := fut.Await()
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(2), calls.Load())
}

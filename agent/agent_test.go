package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	amperrors "github.com/amp-labs/amp-agents/errors"
	"github.com/amp-labs/amp-agents/future"
	"github.com/amp-labs/amp-agents/lanes"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInsufficientFunds = errors.New("insufficient funds")

func newExecutor(t *testing.T, count int) *lanes.Executor {
	t.Helper()

	exec, err := lanes.New(count, lanes.WithName(t.Name()), lanes.WithLogger(slogt.New(t)))
	require.NoError(t, err)

	t.Cleanup(func() {
		exec.Shutdown()

		ok, err := exec.AwaitTermination(context.Background(), 5*time.Second)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	return exec
}

func deposit(amount int) func(int) (int, error) {
	return func(balance int) (int, error) {
		return balance + amount, nil
	}
}

func withdraw(amount int) func(int) (int, error) {
	return func(balance int) (int, error) {
		if amount > balance {
			return balance, fmt.Errorf("%w: balance %d, wanted %d", errInsufficientFunds, balance, amount)
		}

		return balance - amount, nil
	}
}

func TestNew_AbsentState(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	_, err := New[*int](exec, nil)
	require.ErrorIs(t, err, ErrAbsentState)

	_, err = New[map[string]int](exec, nil)
	require.ErrorIs(t, err, ErrAbsentState)

	_, err = New[any](exec, nil)
	require.ErrorIs(t, err, ErrAbsentState)

	_, err = New(nil, 0)
	require.ErrorIs(t, err, ErrAbsentState)

	// Zero values of non-nilable types are valid states.
	a, err := New(exec, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Read())

	b, err := New(exec, "")
	require.NoError(t, err)
	assert.Empty(t, b.Read())
}

func TestNew_Identity(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 4)

	a, err := New(exec, 0)
	require.NoError(t, err)

	b, err := New(exec, 0)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.ID().String(), a.Name())
	assert.Equal(t, exec.LaneFor(a.Key()), a.Lane())

	c, err := New(exec, 0, WithKey(-9), WithName("fixed"))
	require.NoError(t, err)
	assert.Equal(t, int64(-9), c.Key())
	assert.Equal(t, "fixed", c.Name())
}

// Scenario A: chained increments.
func TestSend_ChainedCounter(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 3)

	counter, err := New(exec, 0)
	require.NoError(t, err)

	increment := func(n int) (int, int, error) {
		return n + 1, n + 1, nil
	}

	fut := future.FlatMap(Send(counter, increment), func(int) *future.Future[int] {
		return future.FlatMap(Send(counter, increment), func(int) *future.Future[int] {
			return Send(counter, increment)
		})
	})

	v, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, counter.Read())
}

// Scenario B: a failed withdrawal leaves the balance alone.
func TestSend_FailedTransitionKeepsState(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 2)

	account, err := New(exec, 0, WithLogger(slogt.New(t)))
	require.NoError(t, err)

	v, err := account.Update(deposit(100)).Await()
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	_, err = account.Update(withdraw(101)).Await()
	require.ErrorIs(t, err, errInsufficientFunds)
	assert.Equal(t, 100, account.Read())

	v, err = account.Update(deposit(20)).Await()
	require.NoError(t, err)
	assert.Equal(t, 120, v)
	assert.Equal(t, 120, account.Read())
}

func TestSend_DepositWithdrawDeposit(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 2)

	account, err := New(exec, 0)
	require.NoError(t, err)

	account.Update(deposit(100))
	account.Update(withdraw(50))

	v, err := account.Update(deposit(20)).Await()
	require.NoError(t, err)
	assert.Equal(t, 70, v)
}

// Scenario C: a blast of deposits folds to the exact total.
func TestSend_ManyDeposits(t *testing.T) {
	t.Parallel()

	for _, count := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("lanes=%d", count), func(t *testing.T) {
			t.Parallel()

			exec := newExecutor(t, count)

			account, err := New(exec, 0)
			require.NoError(t, err)

			var last *future.Future[int]
			for range 100 {
				last = account.Update(deposit(100))
			}

			v, err := last.Await()
			require.NoError(t, err)
			assert.Equal(t, 10000, v)
			assert.Equal(t, 10000, account.Read())
		})
	}
}

// Scenario D: work queued before shutdown finishes, later work is rejected.
func TestSend_AfterShutdown(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 0)
	require.NoError(t, err)

	queued := account.Update(func(balance int) (int, error) {
		time.Sleep(10 * time.Millisecond)

		return balance + 5, nil
	})

	exec.Shutdown()

	_, err = account.Update(deposit(1)).Await()
	require.ErrorIs(t, err, lanes.ErrRejectedSubmission)

	v, err := queued.Await()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 5, account.Read())
}

func TestSend_LeftFold(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 4)

	log, err := New(exec, []int{})
	require.NoError(t, err)

	ops := []func([]int) ([]int, error){}
	expected := []int{}

	for i := range 50 {
		expected = append(expected, i)
		ops = append(ops, func(s []int) ([]int, error) {
			next := make([]int, len(s), len(s)+1)
			copy(next, s)

			return append(next, i), nil
		})
	}

	var last *future.Future[[]int]
	for _, op := range ops {
		last = log.Update(op)
	}

	v, err := last.Await()
	require.NoError(t, err)
	assert.Equal(t, expected, v)
}

func TestSend_Result(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	names, err := New(exec, map[string]int{"a": 1})
	require.NoError(t, err)

	size, err := Send(names, func(m map[string]int) (map[string]int, int, error) {
		next := map[string]int{"b": 2}
		for k, v := range m {
			next[k] = v
		}

		return next, len(next), nil
	}).Await()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, names.Read())
}

func TestSend_Panic(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 10)
	require.NoError(t, err)

	notified := 0
	account.Watch(func(int) { notified++ })

	_, err = account.Update(func(int) (int, error) {
		panic("corrupt ledger")
	}).Await()
	require.ErrorIs(t, err, amperrors.ErrPanicRecovery)
	assert.Contains(t, err.Error(), "corrupt ledger")
	assert.Equal(t, 10, account.Read())

	v, err := account.Update(deposit(1)).Await()
	require.NoError(t, err)
	assert.Equal(t, 11, v)
	assert.Equal(t, 1, notified)
}

func TestSend_AgentsAreIndependent(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 2)

	// Keys 0 and 1 land on different lanes.
	slow, err := New(exec, 0, WithKey(0))
	require.NoError(t, err)

	fast, err := New(exec, 0, WithKey(1))
	require.NoError(t, err)

	release := make(chan struct{})
	blocked := slow.Update(func(n int) (int, error) {
		<-release

		return n + 1, nil
	})

	for range 10 {
		fast.Update(deposit(1))
	}

	_, err = fast.Update(withdraw(100)).Await()
	require.ErrorIs(t, err, errInsufficientFunds)
	assert.Equal(t, 10, fast.Read())

	assert.False(t, blocked.IsDone())
	assert.Equal(t, 0, slow.Read())

	close(release)

	v, err := blocked.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestSend_SharedLane(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	var wg sync.WaitGroup

	accounts := make([]*Agent[int], 10)
	for i := range accounts {
		account, err := New(exec, 0)
		require.NoError(t, err)

		accounts[i] = account
	}

	for _, account := range accounts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				account.Update(deposit(1))
			}
		}()
	}

	wg.Wait()

	for _, account := range accounts {
		v, err := account.Update(deposit(0)).Await()
		require.NoError(t, err)
		assert.Equal(t, 100, v)
	}
}

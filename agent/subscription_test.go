package agent

import (
	"errors"
	"sync"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_RegistrationOrder(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 2)

	account, err := New(exec, 0)
	require.NoError(t, err)

	var calls []string

	account.Watch(func(s int) { calls = append(calls, "first") })
	account.Watch(func(s int) { calls = append(calls, "second") })
	account.Watch(func(s int) { calls = append(calls, "third") })
	assert.Equal(t, 3, account.Subscribers())

	_, err = account.Update(deposit(1)).Await()
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestWatch_SeesEveryCommittedState(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 2)

	account, err := New(exec, 0)
	require.NoError(t, err)

	var seen []int

	account.Watch(func(balance int) {
		// Published before the watcher runs.
		assert.Equal(t, balance, account.Read())

		seen = append(seen, balance)
	})

	account.Update(deposit(100))
	account.Update(withdraw(500))

	_, err = account.Update(deposit(20)).Await()
	require.NoError(t, err)

	assert.Equal(t, []int{100, 120}, seen)
}

func TestWatch_ResolvesAfterNotification(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 0)
	require.NoError(t, err)

	notified := make(chan int, 1)
	account.Watch(func(balance int) { notified <- balance })

	_, err = account.Update(deposit(7)).Await()
	require.NoError(t, err)

	select {
	case v := <-notified:
		assert.Equal(t, 7, v)
	default:
		t.Fatal("future resolved before watcher ran")
	}
}

func TestUnwatch(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 0)
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		kept    []int
		dropped []int
	)

	account.Watch(func(s int) {
		mu.Lock()
		defer mu.Unlock()

		kept = append(kept, s)
	})

	sub := account.Watch(func(s int) {
		mu.Lock()
		defer mu.Unlock()

		dropped = append(dropped, s)
	})

	_, err = account.Update(deposit(1)).Await()
	require.NoError(t, err)

	sub.Unwatch()
	sub.Unwatch()
	assert.False(t, sub.Active())
	assert.Equal(t, 1, account.Subscribers())

	_, err = account.Update(deposit(1)).Await()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []int{1, 2}, kept)
	assert.Equal(t, []int{1}, dropped)
}

func TestUnwatch_FromInsideHandler(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 0)
	require.NoError(t, err)

	calls := 0

	var sub *Subscription

	sub = account.Watch(func(int) {
		calls++

		sub.Unwatch()
	})

	account.Update(deposit(1))

	_, err = account.Update(deposit(1)).Await()
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Zero(t, account.Subscribers())
}

func TestUnwatch_AfterAgentDropped(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	sub := func() *Subscription {
		account, err := New(exec, "state")
		require.NoError(t, err)

		return account.Watch(func(string) {})
	}()

	assert.NotPanics(t, sub.Unwatch)
	assert.NotPanics(t, sub.Unwatch)
}

func TestWatch_PanickingHandler(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t, 1)

	account, err := New(exec, 0, WithLogger(slogt.New(t)))
	require.NoError(t, err)

	var after []int

	account.Watch(func(int) { panic(errors.New("handler bug")) })
	account.Watch(func(s int) { after = append(after, s) })

	v, err := account.Update(deposit(3)).Await()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, account.Read())
	assert.Equal(t, []int{3}, after)
}

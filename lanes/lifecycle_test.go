package lanes

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// countingHandler counts the records it receives.
type countingHandler struct {
	records *atomic.Int64
}

func (h countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h countingHandler) Handle(context.Context, slog.Record) error {
	h.records.Inc()

	return nil
}

func (h countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h countingHandler) WithGroup(string) slog.Handler      { return h }

func TestAwaitTermination_LanesAreSilentAfterwards(t *testing.T) {
	t.Parallel()

	records := atomic.NewInt64(0)

	exec, err := New(3, WithName(t.Name()), WithLogger(slog.New(countingHandler{records: records})))
	require.NoError(t, err)

	_, err = Submit(exec, 1, func(context.Context) (int, error) {
		panic("logged by the lane")
	}).Await()
	require.Error(t, err)

	for key := range int64(9) {
		require.NoError(t, exec.Execute(key, func(context.Context) {}))
	}

	exec.Shutdown()

	ok, err := exec.AwaitTermination(t.Context(), 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	seen := records.Load()
	assert.Positive(t, seen)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seen, records.Load())
}

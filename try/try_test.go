package try

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestOf(t *testing.T) {
	t.Parallel()

	ok := Of(5, nil)
	require.True(t, ok.IsSuccess())
	assert.Equal(t, 5, ok.GetOrElse(0))

	bad := Of(5, errBoom)
	require.True(t, bad.IsFailure())
	assert.Equal(t, 0, bad.Value)
	assert.Equal(t, 7, bad.GetOrElse(7))

	_, err := bad.Get()
	require.ErrorIs(t, err, errBoom)
}

func TestMap(t *testing.T) {
	t.Parallel()

	out := Map(Success(12), func(v int) (string, error) {
		return strconv.Itoa(v), nil
	})
	require.NoError(t, out.Error)
	assert.Equal(t, "12", out.Value)

	called := false
	failed := Map(Failure[int](errBoom), func(v int) (string, error) {
		called = true

		return "", nil
	})

	assert.False(t, called)
	require.ErrorIs(t, failed.Error, errBoom)
}

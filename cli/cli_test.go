package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"1", " 250 ", "10000"} {
		require.NoError(t, ValidateAmount(ok), ok)
	}

	for _, bad := range []string{"", "0", "-5", "ten", "1.5"} {
		require.ErrorIs(t, ValidateAmount(bad), ErrNotPositive, bad)
	}
}

func TestPanel(t *testing.T) {
	t.Parallel()

	out := Panel("lanes", []string{"lanes-1  done=3", "-", "total  done=3"}, 20)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)

	for _, line := range lines {
		assert.Equal(t, 20, graphicLen(line), line)
	}

	assert.Contains(t, lines[1], "lanes")
	assert.True(t, strings.HasPrefix(lines[3], dividerLeft))
}

func TestPanel_Truncates(t *testing.T) {
	t.Parallel()

	out := Panel("t", []string{strings.Repeat("x", 40)}, 12)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	assert.Equal(t, 12, graphicLen(lines[2]))
	assert.Contains(t, lines[2], ellipsis)
}

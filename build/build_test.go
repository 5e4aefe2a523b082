package build

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for _, empty := range []string{"", "{}", "{not json"} {
		info, ok := Parse(empty)
		assert.False(t, ok, empty)
		assert.Nil(t, info)
	}

	info, ok := Parse(`{"version":"v1.2.0","git_commit":"abc","dependencies":{"x":"v1"}}`)
	require.True(t, ok)
	assert.Equal(t, "v1.2.0", info.Version)
	assert.Equal(t, "abc", info.GitCommit)
	assert.Equal(t, map[string]string{"x": "v1"}, info.Dependencies)
}

func TestFromBuildInfo(t *testing.T) {
	t.Parallel()

	info := FromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.25.0",
		Main:      debug.Module{Version: develVersion},
		Deps:      []*debug.Module{{Path: "github.com/zeebo/xxh3", Version: "v1.0.2"}},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "go1.25.0", info.GoVersion)
	assert.Equal(t, "v1.0.2", info.Dependencies["github.com/zeebo/xxh3"])
	assert.True(t, info.Modified)
	assert.Equal(t, "0123456789ab", info.Short())
}

func TestShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v0.3.1", Info{Version: "v0.3.1", GitCommit: "abc"}.Short())
	assert.Equal(t, "abc", Info{Version: develVersion, GitCommit: "abc"}.Short())
	assert.Equal(t, develVersion, Info{}.Short())
	assert.NotEmpty(t, Current().Short())
}

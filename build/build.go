// Package build reports version metadata for the running binary. Values can
// be injected at link time with
//
//	-ldflags "-X github.com/amp-labs/amp-agents/build.injected=<json>"
//
// and otherwise come from the module build info embedded by the Go toolchain.
package build

import (
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync"
)

const develVersion = "(devel)"

// injected is set through -ldflags.
var injected string //nolint:gochecknoglobals

// Info contains build metadata.
type Info struct {
	Version      string            `json:"version"`
	GitCommit    string            `json:"git_commit"` //nolint:tagliatelle
	GitDate      string            `json:"git_date"`   //nolint:tagliatelle
	Modified     bool              `json:"modified"`
	GoVersion    string            `json:"go_version"` //nolint:tagliatelle
	Dependencies map[string]string `json:"dependencies"`
}

// Parse deserializes a JSON string into build Info.
// Returns (nil, false) if the input is empty, "{}", or fails to parse.
func Parse(js string) (*Info, bool) {
	if len(js) == 0 || js == "{}" {
		return nil, false
	}

	var info Info

	if err := json.Unmarshal([]byte(js), &info); err != nil {
		slog.Warn("Failed to parse build info from JSON",
			"data", js,
			"error", err)

		return nil, false
	}

	return &info, true
}

// FromBuildInfo converts the toolchain's build info.
func FromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{
		Version:      bi.Main.Version,
		GoVersion:    bi.GoVersion,
		Dependencies: make(map[string]string, len(bi.Deps)),
	}

	for _, dep := range bi.Deps {
		info.Dependencies[dep.Path] = dep.Version
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
		case "vcs.time":
			info.GitDate = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}

	return info
}

// Current returns the metadata of the running binary, preferring values
// injected at link time.
var Current = sync.OnceValue(func() Info { //nolint:gochecknoglobals
	if info, ok := Parse(injected); ok {
		return *info
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		return FromBuildInfo(bi)
	}

	return Info{Version: develVersion}
})

// Short returns the module version, or the abbreviated commit when the
// module version is unknown.
func (i Info) Short() string {
	const commitLen = 12

	if i.Version != "" && i.Version != develVersion {
		return i.Version
	}

	if len(i.GitCommit) > commitLen {
		return i.GitCommit[:commitLen]
	}

	if i.GitCommit != "" {
		return i.GitCommit
	}

	return develVersion
}

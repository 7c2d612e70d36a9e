package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/blogbuilder/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, set the same way.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version. When no version was
// injected the module version recorded by the Go toolchain is used.
func String() string {
	v := Version
	if v == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("blogbuilder %s (commit %s, built %s)", v, GitCommit, BuildTime)
}

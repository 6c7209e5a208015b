package version

import "fmt"

// Version is stamped at build time:
// go build -ldflags "-X git.home.luguber.info/inful/snapfront/internal/version.Version=v1.4.0".
var Version = "unknown"

// Build metadata, also stamped through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `snapfront --version`.
func String() string {
	return fmt.Sprintf("snapfront %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

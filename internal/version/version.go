// Package version carries build metadata injected with ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/chronodeck/internal/version.Version=v0.3.0"
package version

import "fmt"

var Version = "dev"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is what `chronodeck --version` prints.
func String() string {
	return fmt.Sprintf("chronodeck %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

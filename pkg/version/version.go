// Package version carries build metadata stamped in by the linker:
//
//	go build -ldflags "-X github.com/newtron-network/replsync/pkg/version.Version=v0.3.0 \
//	  -X github.com/newtron-network/replsync/pkg/version.GitCommit=abc1234 \
//	  -X github.com/newtron-network/replsync/pkg/version.BuildDate=2026-01-01T00:00:00Z"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string for display.
func Info() string {
	return fmt.Sprintf("%s (%s) built %s", Version, GitCommit, BuildDate)
}

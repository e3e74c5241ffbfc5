// Package version carries build metadata injected at link time:
//
//	go build -ldflags "-X github.com/dkoosis/shotlink/internal/version.Version=v1.2.0"
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"     // Default value if not built with LDFLAGS
	CommitHash = "unknown" // Default value
	BuildDate  = "unknown" // Default value
)

// String formats the build metadata for `shotlink version`.
func String() string {
	return fmt.Sprintf("shotlink %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}

// Package version exposes examdex build metadata. The -X ldflags of the
// release build overwrite the defaults below.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the metadata as "examdex <version> (<commit>, built <date>)".
func String() string {
	return fmt.Sprintf("examdex %s (%s, built %s)", Version, Commit, Date)
}

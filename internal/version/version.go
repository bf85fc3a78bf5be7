// Package version holds the build-time version variables for the pcat binary.
// The zero values ("dev", "none", "unknown") are used for local builds.
// GoReleaser injects the real values via -ldflags at release time.
package version

import "fmt"

// These variables are overridden by GoReleaser ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the formatted version string printed by pcat version.
// policies is the number of built-in policies compiled into the binary.
func Info(policies int) string {
	return fmt.Sprintf(
		"pcat version %s\ncommit: %s\nbuilt: %s\npolicies: %d\n",
		Version,
		Commit,
		Date,
		policies,
	)
}

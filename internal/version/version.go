// Package version holds build information, set with
// -ldflags "-X github.com/copyleftdev/gridopt/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "none"
)

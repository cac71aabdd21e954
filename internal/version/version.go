// Package version holds build information reported by GET /version.
// The values are overridden at build time:
//
//	go build -ldflags "-X github.com/bissquit/quotedesk/internal/version.Version=1.2.0"
package version

var (
	// Version is the release version.
	Version = "dev"
	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
	// BuildDate is the build timestamp in RFC 3339.
	BuildDate = "unknown"
)

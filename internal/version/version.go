// Package version records build metadata, stamped at build time via
// -ldflags. Logged at capsule startup so pipeline logs identify which build
// produced a result.
package version

var (
	// Version is the current capsule version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

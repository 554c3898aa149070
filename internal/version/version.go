// Package version holds the application version, set at build time.
package version

// Version is injected via -ldflags at release builds.
var Version = "dev"

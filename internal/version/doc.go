// Package version exposes build metadata of the assistant binaries.
//
// Version, Commit and BuildTime are injected with -ldflags; Short is what
// the server reports from ListTools.
package version

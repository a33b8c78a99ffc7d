// Package common holds helpers shared by the assistant binaries.
//
// It provides a gRPC client wrapper with per-call timeouts and detection of
// the local hostname and username sent when a session is opened.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

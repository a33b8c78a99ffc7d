// Package assistant exposes tool listing, session streaming and tool
// invocation over gRPC.
package assistant

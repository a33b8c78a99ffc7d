// Package client implements the assistant-client commands: listing the
// server's tools and calling one inside a fresh session, optionally staying
// connected to print the events that follow.
package client

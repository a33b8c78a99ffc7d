// Package session defines what the scheduler and the tools need from the
// connection that owns a conversation: a thread-safe way to defer work onto
// the connection's event loop, and the channels a finished timer speaks
// through.
package session

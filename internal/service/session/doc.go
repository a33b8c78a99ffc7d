// Package session implements the server side of a conversation: each
// Session owns an event loop for deferred timer and alarm actions and a
// bounded queue of events read by the transport that opened it.
package session

// Package ws serves sessions over WebSocket.
//
// The client sends tool_call frames and receives tool_result or error frames
// tagged with the call id, interleaved with the session's own events. Each
// call runs on its own goroutine; a single write pump owns the connection's
// writer.
package ws

// Package eventloop runs deferred actions for one connection on a single
// goroutine.
//
// Any goroutine may Submit an action with a delay and keep the returned
// Handle to cancel it. The delay is tracked by a runtime timer; once it
// elapses the action is queued and executed by Run, so actions of one loop
// never overlap. Stopping the loop cancels every action that has not started.
package eventloop

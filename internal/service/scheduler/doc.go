// Package scheduler arranges the notification of every timer and alarm.
//
// The Engine creates entries in the registry, submits one deferred action per
// entry to the owning connection's event loop and, when the action runs,
// speaks the finished message, hands it to the conversation and removes the
// entry. Delivery failures are logged and never stop the removal.
package scheduler

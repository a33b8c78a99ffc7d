// Package logger wraps zap for the assistant binaries.
//
// A sugared logger is kept as a process global and travels through
// context.Context: request handlers, sessions and deferred timer actions
// attach their own name and key-value pairs with WithName/WithKV and log
// through the level helpers (InfoKV, ErrorKV, ...), which read the logger
// back from the context.
package logger

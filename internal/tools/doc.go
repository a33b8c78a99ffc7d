// Package tools is the function-calling surface of the assistant.
//
// A Tool couples a JSON schema for its arguments with a Handler. The
// Registry resolves every schema once at registration, validates each call
// against it and dispatches to the handler with the calling connection.
// Handlers answer with an ActionResponse that tells the caller whether to
// speak the response directly or hand the result back to the model.
package tools

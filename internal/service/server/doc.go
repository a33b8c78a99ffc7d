// Package server runs the assistant-server process: it loads the settings,
// wires the registry, engine, tools and sessions together and serves them
// over gRPC and, when configured, WebSocket.
package server

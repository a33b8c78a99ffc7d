// Package pb holds the gRPC contract of assistant.v1.AssistantService.
//
// Requests and responses are google.protobuf.Struct and google.protobuf.Empty
// well-known types, so the service descriptor is written out here instead of
// being generated from a .proto file. Field names of every message are listed
// in fields.go.
package pb

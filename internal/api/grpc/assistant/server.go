package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/logger"
	pb "github.com/oshokin/voice-assistant/internal/pb/v1"
	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools"
)

// Tools is the tool registry the transport dispatches to.
type Tools interface {
	Tools() []*tools.Tool
	Invoke(ctx context.Context, conn domain.Connection, name string, args json.RawMessage) (*tools.ActionResponse, error)
}

// Sessions opens, finds and closes sessions.
type Sessions interface {
	Open(ctx context.Context, opts session.OpenOptions) (*session.Session, error)
	Get(id string) (*session.Session, bool)
	Close(ctx context.Context, id string)
}

// Server implements the AssistantService gRPC API.
type Server struct {
	pb.UnimplementedAssistantServiceServer

	// tools lists and runs tools.
	tools Tools
	// sessions owns the conversations.
	sessions Sessions
	// version is reported by ListTools.
	version string
}

// NewServer wires the registry and session manager into a gRPC handler.
func NewServer(tools Tools, sessions Sessions, version string) *Server {
	return &Server{
		tools:    tools,
		sessions: sessions,
		version:  version,
	}
}

// ListTools describes the server and its tools.
func (s *Server) ListTools(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	descriptors, err := DescribeTools(s.tools.Tools())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "describe tools: %v", err)
	}

	response, err := structpb.NewStruct(map[string]any{
		pb.FieldServerVersion: s.version,
		pb.FieldTools:         descriptors,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode tools: %v", err)
	}

	return response, nil
}

// Connect opens a session and streams its events until the client goes away.
// The session is closed, and its timers and alarms released, when the call ends.
func (s *Server) Connect(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := logger.WithName(stream.Context(), "grpc")

	opts := session.OpenOptions{
		Peer: session.Peer{
			Hostname: stringField(req, pb.FieldHostname),
			Username: stringField(req, pb.FieldUsername),
		},
	}

	if v, ok := req.GetFields()[pb.FieldFunctionCalling]; ok {
		if b, isBool := v.GetKind().(*structpb.Value_BoolValue); isBool {
			opts.FunctionCalling = &b.BoolValue
		}
	}

	conn, err := s.sessions.Open(ctx, opts)
	if err != nil {
		return status.Errorf(codes.Unavailable, "open session: %v", err)
	}

	defer s.sessions.Close(context.WithoutCancel(ctx), conn.ID())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-conn.Events():
			if !ok {
				return nil
			}

			message, err := EncodeEvent(event)
			if err != nil {
				return status.Errorf(codes.Internal, "encode event: %v", err)
			}

			if err = stream.Send(message); err != nil {
				return fmt.Errorf("send event: %w", err)
			}
		}
	}
}

// InvokeTool runs one tool call inside an open session.
func (s *Server) InvokeTool(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	sessionID := stringField(req, pb.FieldSessionID)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}

	name := stringField(req, pb.FieldName)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	conn, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "session %s not found", sessionID)
	}

	args := json.RawMessage("{}")

	if v, present := req.GetFields()[pb.FieldArguments]; present && v.GetStructValue() != nil {
		encoded, err := v.GetStructValue().MarshalJSON()
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "arguments: %v", err)
		}

		args = encoded
	}

	resp, err := s.tools.Invoke(ctx, conn, name, args)
	if err != nil {
		return nil, ToStatus(err)
	}

	return EncodeActionResponse(resp)
}

// ToStatus maps tool errors onto gRPC codes.
func ToStatus(err error) error {
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, tools.ErrInvalidArguments):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// DescribeTools renders tool definitions as plain values for a Struct.
func DescribeTools(list []*tools.Tool) ([]any, error) {
	result := make([]any, 0, len(list))

	for _, tool := range list {
		var parameters map[string]any

		if tool.Parameters != nil {
			encoded, err := json.Marshal(tool.Parameters)
			if err != nil {
				return nil, fmt.Errorf("marshal schema of %s: %w", tool.Name, err)
			}

			if err = json.Unmarshal(encoded, &parameters); err != nil {
				return nil, fmt.Errorf("unmarshal schema of %s: %w", tool.Name, err)
			}
		}

		result = append(result, map[string]any{
			pb.FieldName:        tool.Name,
			pb.FieldDescription: tool.Description,
			pb.FieldParameters:  parameters,
		})
	}

	return result, nil
}

// EncodeEvent converts a session event into a stream message.
func EncodeEvent(event *session.Event) (*structpb.Struct, error) {
	fields := map[string]any{
		pb.FieldType: string(event.Type),
	}

	if event.SessionID != "" {
		fields[pb.FieldSessionID] = event.SessionID
	}

	if event.Text != "" {
		fields[pb.FieldText] = event.Text
	}

	if event.Mode != "" {
		fields[pb.FieldMode] = string(event.Mode)
	}

	return structpb.NewStruct(fields)
}

// EncodeActionResponse converts a tool answer into a response message.
func EncodeActionResponse(resp *tools.ActionResponse) (*structpb.Struct, error) {
	if resp == nil {
		return nil, status.Error(codes.Internal, "tool returned no response")
	}

	message, err := structpb.NewStruct(map[string]any{
		pb.FieldAction:   string(resp.Action),
		pb.FieldResult:   resp.Result,
		pb.FieldResponse: resp.Response,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}

	return message, nil
}

// stringField returns a string field of msg, or "" when absent or not a string.
func stringField(msg *structpb.Struct, name string) string {
	return msg.GetFields()[name].GetStringValue()
}

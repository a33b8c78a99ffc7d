package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of AssistantService.
const (
	AssistantService_ListTools_FullMethodName  = "/assistant.v1.AssistantService/ListTools"
	AssistantService_Connect_FullMethodName    = "/assistant.v1.AssistantService/Connect"
	AssistantService_InvokeTool_FullMethodName = "/assistant.v1.AssistantService/InvokeTool"
)

// AssistantServiceClient is the client API for AssistantService.
type AssistantServiceClient interface {
	// ListTools describes the server and its callable tools.
	ListTools(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	// Connect opens a session and streams its events until the call ends.
	Connect(
		ctx context.Context,
		in *structpb.Struct,
		opts ...grpc.CallOption,
	) (grpc.ServerStreamingClient[structpb.Struct], error)
	// InvokeTool runs one tool call inside a session.
	InvokeTool(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type assistantServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAssistantServiceClient creates a client over cc.
func NewAssistantServiceClient(cc grpc.ClientConnInterface) AssistantServiceClient {
	return &assistantServiceClient{cc}
}

func (c *assistantServiceClient) ListTools(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(structpb.Struct)

	if err := c.cc.Invoke(ctx, AssistantService_ListTools_FullMethodName, in, out, cOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *assistantServiceClient) Connect(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)

	stream, err := c.cc.NewStream(ctx, &AssistantService_ServiceDesc.Streams[0], AssistantService_Connect_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

func (c *assistantServiceClient) InvokeTool(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(structpb.Struct)

	if err := c.cc.Invoke(ctx, AssistantService_InvokeTool_FullMethodName, in, out, cOpts...); err != nil {
		return nil, err
	}

	return out, nil
}

// AssistantServiceServer is the server API for AssistantService.
// Implementations must embed UnimplementedAssistantServiceServer.
type AssistantServiceServer interface {
	ListTools(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	Connect(in *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error
	InvokeTool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedAssistantServiceServer()
}

// UnimplementedAssistantServiceServer must be embedded by value.
type UnimplementedAssistantServiceServer struct{}

func (UnimplementedAssistantServiceServer) ListTools(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListTools not implemented")
}

func (UnimplementedAssistantServiceServer) Connect(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Errorf(codes.Unimplemented, "method Connect not implemented")
}

func (UnimplementedAssistantServiceServer) InvokeTool(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method InvokeTool not implemented")
}

func (UnimplementedAssistantServiceServer) mustEmbedUnimplementedAssistantServiceServer() {}

func (UnimplementedAssistantServiceServer) testEmbeddedByValue() {}

// RegisterAssistantServiceServer registers srv on s.
func RegisterAssistantServiceServer(s grpc.ServiceRegistrar, srv AssistantServiceServer) {
	// Panics early when the unimplemented server is embedded by pointer and left nil.
	if t, ok := srv.(interface{ testEmbeddedByValue() }); ok {
		t.testEmbeddedByValue()
	}

	s.RegisterService(&AssistantService_ServiceDesc, srv)
}

func _AssistantService_ListTools_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AssistantServiceServer).ListTools(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AssistantService_ListTools_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServiceServer).ListTools(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func _AssistantService_InvokeTool_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AssistantServiceServer).InvokeTool(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AssistantService_InvokeTool_FullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServiceServer).InvokeTool(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func _AssistantService_Connect_Handler(srv any, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}

	return srv.(AssistantServiceServer).Connect(m, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{
		ServerStream: stream,
	})
}

// AssistantService_ServiceDesc is the grpc.ServiceDesc for AssistantService.
//
//nolint:gochecknoglobals // Referenced by the client stubs and RegisterService.
var AssistantService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "assistant.v1.AssistantService",
	HandlerType: (*AssistantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListTools",
			Handler:    _AssistantService_ListTools_Handler,
		},
		{
			MethodName: "InvokeTool",
			Handler:    _AssistantService_InvokeTool_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       _AssistantService_Connect_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "assistant/v1/assistant.proto",
}

//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/voice-assistant/internal/config"
	pb "github.com/oshokin/voice-assistant/internal/pb/v1"
	"github.com/oshokin/voice-assistant/internal/service/session"
)

// Client wraps the AssistantService gRPC client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the assistant server.
	conn *grpc.ClientConn
	// api is the AssistantService client interface.
	api pb.AssistantServiceClient

	// callTimeout is the default timeout for unary calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errSessionRequired is returned when a tool is invoked without a session.
	errSessionRequired = errors.New("session id must be provided")
	// errToolRequired is returned when a tool is invoked without a name.
	errToolRequired = errors.New("tool name must be provided")
)

// Dial establishes a gRPC connection to the assistant server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial assistant server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewAssistantServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ListTools retrieves the server version and tool descriptors.
func (c *Client) ListTools(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListTools(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	return resp, nil
}

// Connect opens a session. The stream lives until ctx is cancelled, so no
// call timeout applies. A nil functionCalling keeps the server default.
func (c *Client) Connect(
	ctx context.Context,
	peer session.Peer,
	functionCalling *bool,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	fields := map[string]any{
		pb.FieldHostname: peer.Hostname,
		pb.FieldUsername: peer.Username,
	}

	if functionCalling != nil {
		fields[pb.FieldFunctionCalling] = *functionCalling
	}

	request, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode connect request: %w", err)
	}

	stream, err := c.api.Connect(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return stream, nil
}

// InvokeTool runs a tool inside an open session.
func (c *Client) InvokeTool(
	ctx context.Context,
	sessionID, name string,
	arguments map[string]any,
) (*structpb.Struct, error) {
	if sessionID == "" {
		return nil, errSessionRequired
	}

	if name == "" {
		return nil, errToolRequired
	}

	if arguments == nil {
		arguments = map[string]any{}
	}

	request, err := structpb.NewStruct(map[string]any{
		pb.FieldSessionID: sessionID,
		pb.FieldName:      name,
		pb.FieldArguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("encode invoke request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.InvokeTool(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", name, err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

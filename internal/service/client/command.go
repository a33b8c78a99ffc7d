package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/voice-assistant/internal/config"
	"github.com/oshokin/voice-assistant/internal/logger"
	pb "github.com/oshokin/voice-assistant/internal/pb/v1"
	"github.com/oshokin/voice-assistant/internal/service/common"
	"github.com/oshokin/voice-assistant/internal/service/session"
)

// Options configures the connection to the assistant server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// Out receives the printed messages; os.Stdout when nil.
	Out io.Writer
}

// CallOptions describes one tool call.
type CallOptions struct {
	Options

	// Tool is the name of the tool to call.
	Tool string
	// Arguments is the JSON object passed to the tool.
	Arguments string
	// FunctionCalling sets the session mode; nil keeps the server default.
	FunctionCalling *bool
	// Wait keeps the session open this long after the call to print its events.
	Wait time.Duration
}

var (
	// errSessionNotAnnounced is returned when the first stream message is not a session event.
	errSessionNotAnnounced = errors.New("server did not announce a session")
	// errArgumentsNotObject is returned when the arguments are not a JSON object.
	errArgumentsNotObject = errors.New("arguments must be a JSON object")
)

// ListTools prints the server version and tool descriptors.
func ListTools(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "assistant-client")

	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	resp, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	return printMessage(output(opts), resp)
}

// Call opens a session, invokes one tool and prints the answer.
func Call(ctx context.Context, opts *CallOptions) error {
	ctx = logger.WithName(ctx, "assistant-client")

	arguments, err := parseArguments(opts.Arguments)
	if err != nil {
		return err
	}

	peer, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := dial(ctx, &opts.Options)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	streamCtx, closeStream := context.WithCancel(ctx)
	defer closeStream()

	stream, err := client.Connect(streamCtx, peer, opts.FunctionCalling)
	if err != nil {
		return err
	}

	sessionID, err := awaitSession(stream)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Session opened", "session_id", sessionID, "tool", opts.Tool)

	resp, err := client.InvokeTool(ctx, sessionID, opts.Tool, arguments)
	if err != nil {
		return err
	}

	out := output(&opts.Options)

	if err = printMessage(out, resp); err != nil {
		return err
	}

	if opts.Wait <= 0 {
		return nil
	}

	timer := time.AfterFunc(opts.Wait, closeStream)
	defer timer.Stop()

	return printEvents(streamCtx, stream, out)
}

// awaitSession reads the announcement that opens every stream.
func awaitSession(stream grpc.ServerStreamingClient[structpb.Struct]) (string, error) {
	first, err := stream.Recv()
	if err != nil {
		return "", fmt.Errorf("receive session: %w", err)
	}

	fields := first.GetFields()
	if fields[pb.FieldType].GetStringValue() != string(session.EventSession) {
		return "", errSessionNotAnnounced
	}

	return fields[pb.FieldSessionID].GetStringValue(), nil
}

// printEvents prints stream messages until the stream or ctx ends.
func printEvents(ctx context.Context, stream grpc.ServerStreamingClient[structpb.Struct], out io.Writer) error {
	for {
		event, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}

			return fmt.Errorf("receive event: %w", err)
		}

		if err = printMessage(out, event); err != nil {
			return err
		}
	}
}

func dial(ctx context.Context, opts *Options) (*common.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	return common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
}

func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, fmt.Errorf("%w: %w", errArgumentsNotObject, err)
	}

	return arguments, nil
}

func printMessage(out io.Writer, message proto.Message) error {
	encoded, err := protojson.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if _, err = fmt.Fprintln(out, string(encoded)); err != nil {
		return fmt.Errorf("print message: %w", err)
	}

	return nil
}

func output(opts *Options) io.Writer {
	if opts.Out != nil {
		return opts.Out
	}

	return os.Stdout
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	domain "github.com/oshokin/voice-assistant/internal/domain/session"
	"github.com/oshokin/voice-assistant/internal/logger"
	"github.com/oshokin/voice-assistant/internal/service/session"
	"github.com/oshokin/voice-assistant/internal/tools"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pongWait is how long the reader waits for any frame or pong.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = pongWait * 9 / 10
	// outboundBuffer is the number of tool answers queued ahead of the write pump.
	outboundBuffer = 16
	// maxFrameSize limits inbound frames.
	maxFrameSize = 1 << 20
)

var (
	// errEmptyToolName is reported for tool_call frames without a name.
	errEmptyToolName = errors.New("tool name is required")
	// errUnsupportedFrame is reported for frames the server does not accept.
	errUnsupportedFrame = errors.New("unsupported frame type")
)

// Tools is the tool registry the transport dispatches to.
type Tools interface {
	Invoke(ctx context.Context, conn domain.Connection, name string, args json.RawMessage) (*tools.ActionResponse, error)
}

// Sessions opens and closes sessions.
type Sessions interface {
	Open(ctx context.Context, opts session.OpenOptions) (*session.Session, error)
	Close(ctx context.Context, id string)
}

// Handler upgrades HTTP requests into sessions.
type Handler struct {
	// tools runs tool calls.
	tools Tools
	// sessions owns the conversations.
	sessions Sessions
	// upgrader performs the WebSocket handshake.
	upgrader websocket.Upgrader
}

// NewHandler creates a handler over the registry and session manager.
func NewHandler(tools Tools, sessions Sessions) *Handler {
	return &Handler{
		tools:    tools,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Router exposes /ws and /healthz.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)
	router.HandleFunc("/healthz", serveHealth).Methods(http.MethodGet)

	return router
}

func serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// serveWS runs one session for the lifetime of the socket.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "ws")

	var opts session.OpenOptions

	if raw := r.URL.Query().Get("function_calling"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "function_calling must be a boolean", http.StatusBadRequest)
			return
		}

		opts.FunctionCalling = &enabled
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error.
		logger.WarnKV(ctx, "WebSocket upgrade failed", "error", err)
		return
	}

	defer func() {
		_ = socket.Close()
	}()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	conn, err := h.sessions.Open(ctx, opts)
	if err != nil {
		logger.ErrorKV(ctx, "Open session failed", "error", err)
		return
	}

	ctx = logger.WithKV(ctx, "session_id", conn.ID())

	c := &client{
		handler:  h,
		socket:   socket,
		session:  conn,
		outbound: make(chan *Frame, outboundBuffer),
	}

	pumpDone := make(chan struct{})

	go func() {
		defer close(pumpDone)
		c.writePump(ctx, cancel)
	}()

	c.readLoop(ctx)

	cancel()
	c.calls.Wait()
	h.sessions.Close(context.WithoutCancel(ctx), conn.ID())
	<-pumpDone

	logger.InfoKV(ctx, "WebSocket closed")
}

// client is the per-socket state.
type client struct {
	// handler owns the registry and sessions.
	handler *Handler
	// socket is the WebSocket connection.
	socket *websocket.Conn
	// session is the conversation bound to the socket.
	session *session.Session
	// outbound carries tool answers to the write pump.
	outbound chan *Frame
	// calls tracks running tool calls.
	calls sync.WaitGroup
}

// readLoop dispatches inbound frames until the socket fails or closes.
func (c *client) readLoop(ctx context.Context) {
	c.socket.SetReadLimit(maxFrameSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.socket.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnKV(ctx, "WebSocket read failed", "error", err)
			}

			return
		}

		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))

		if frame.Type != TypeToolCall {
			c.reply(ctx, errorFrame(frame.ID, fmt.Errorf("%w: %q", errUnsupportedFrame, frame.Type)))
			continue
		}

		c.calls.Go(func() {
			c.call(ctx, &frame)
		})
	}
}

// call runs one tool call and queues its answer.
func (c *client) call(ctx context.Context, frame *Frame) {
	if frame.Name == "" {
		c.reply(ctx, errorFrame(frame.ID, errEmptyToolName))
		return
	}

	resp, err := c.handler.tools.Invoke(ctx, c.session, frame.Name, frame.Arguments)
	if err != nil {
		logger.WarnKV(ctx, "Tool call failed", "tool", frame.Name, "error", err)
		c.reply(ctx, errorFrame(frame.ID, err))

		return
	}

	c.reply(ctx, resultFrame(frame.ID, resp))
}

// reply queues a frame for the write pump unless the socket is going away.
func (c *client) reply(ctx context.Context, frame *Frame) {
	select {
	case c.outbound <- frame:
	case <-ctx.Done():
	}
}

// writePump is the only writer of the socket.
func (c *client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		cancel()
		// Unblocks the reader when the pump fails first.
		_ = c.socket.Close()
	}()

	events := c.session.Events()

	for {
		var frame *Frame

		select {
		case <-ctx.Done():
			_ = c.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))

			return
		case event, ok := <-events:
			if !ok {
				return
			}

			frame = eventFrame(event)
		case frame = <-c.outbound:
		case <-ticker.C:
			if err := c.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.WarnKV(ctx, "WebSocket ping failed", "error", err)
				return
			}

			continue
		}

		_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))

		if err := c.socket.WriteJSON(frame); err != nil {
			logger.WarnKV(ctx, "WebSocket write failed", "error", err)
			return
		}
	}
}

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"

	"sandi/internal/ws"
	"sandi/pkg/core"
)

// WSConfig configures a websocket connection.
type WSConfig struct {
	URL string
	// PingInterval plus PongWait bounds how long the socket may stay silent.
	PingInterval time.Duration
	PongWait     time.Duration
}

// WSClient is a single websocket connection. It does not reconnect:
// once the socket closes, Done is closed and the client is finished.
type WSClient struct {
	config    WSConfig
	state     *ws.State
	conn      *gws.Conn
	handler   *wsEventHandler
	logger    zerolog.Logger
	onMessage func([]byte)

	mu            sync.RWMutex
	connectedChan chan struct{}
	doneChan      chan struct{}
	closeErr      error
	wg            sync.WaitGroup
}

type wsEventHandler struct {
	client *WSClient
}

// NewWSClient creates a client that hands every text or binary frame to onMessage.
// onMessage runs on the read goroutine and must not block for long.
func NewWSClient(config WSConfig, onMessage func([]byte)) *WSClient {
	if config.PingInterval == 0 {
		config.PingInterval = 25 * time.Second
	}
	if config.PongWait == 0 {
		config.PongWait = 20 * time.Second
	}
	if onMessage == nil {
		onMessage = func([]byte) {}
	}

	client := &WSClient{
		config:        config,
		state:         &ws.State{},
		connectedChan: make(chan struct{}),
		doneChan:      make(chan struct{}),
		logger:        zerolog.Nop(),
		onMessage:     onMessage,
	}
	client.state.Store(ws.StateDisconnected)
	client.handler = &wsEventHandler{client: client}
	return client
}

func (c *WSClient) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

func (h *wsEventHandler) OnOpen(socket *gws.Conn) {
	h.client.state.Store(ws.StateConnected)
	close(h.client.connectedChan)

	h.client.logger.Info().
		Str("url", h.client.config.URL).
		Msg("websocket connected")

	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
}

func (h *wsEventHandler) OnClose(socket *gws.Conn, err error) {
	h.client.state.Store(ws.StateClosed)

	h.client.mu.Lock()
	h.client.closeErr = err
	select {
	case <-h.client.doneChan:
	default:
		close(h.client.doneChan)
	}
	h.client.mu.Unlock()

	h.client.logger.Info().
		Err(err).
		Str("url", h.client.config.URL).
		Msg("websocket closed")
}

func (h *wsEventHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
	_ = socket.WritePong(payload)
}

func (h *wsEventHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))
}

func (h *wsEventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	_ = socket.SetDeadline(time.Now().Add(h.client.config.PingInterval + h.client.config.PongWait))

	data := message.Bytes()
	if len(data) == 0 {
		return
	}

	// Private channels carry account data; only the size is logged.
	h.client.logger.Trace().Int("size", len(data)).Msg("websocket message")

	buf := make([]byte, len(data))
	copy(buf, data)
	h.client.onMessage(buf)
}

// Connect dials the server and starts the read loop.
func (c *WSClient) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(ws.StateDisconnected, ws.StateConnecting) {
		return fmt.Errorf("invalid state for connect: %s", c.state.Load())
	}
	if err := ctx.Err(); err != nil {
		c.state.Store(ws.StateDisconnected)
		return ContextError("", "connect websocket", err)
	}

	socket, _, err := gws.NewClient(c.handler, &gws.ClientOption{
		Addr: c.config.URL,
	})
	if err != nil {
		c.state.Store(ws.StateClosed)
		return core.NewExchangeError("", core.ErrorTypeNetwork, 0, "connect websocket").
			WithCode(core.ErrCodeNetwork).
			WithCause(err)
	}

	c.mu.Lock()
	c.conn = socket
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		socket.ReadLoop()
	}()

	select {
	case <-c.connectedChan:
		return nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		return ContextError("", "connect websocket", ctx.Err())
	}
}

// Close shuts the connection and waits for the read loop to exit.
func (c *WSClient) Close() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn != nil {
		_ = conn.NetConn().Close()
	}
	c.state.Store(ws.StateClosed)

	c.wg.Wait()
	return nil
}

// Done is closed when the socket has closed for any reason.
func (c *WSClient) Done() <-chan struct{} {
	return c.doneChan
}

// Err returns the close reason once Done is closed.
func (c *WSClient) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closeErr
}

func (c *WSClient) State() ws.ConnState {
	return c.state.Load()
}

// MarkAuthenticated records that the server accepted the login frame.
func (c *WSClient) MarkAuthenticated() {
	c.state.CompareAndSwap(ws.StateConnected, ws.StateAuthenticated)
}

func (c *WSClient) IsConnected() bool {
	s := c.state.Load()
	return s == ws.StateConnected || s == ws.StateAuthenticated
}

func (c *WSClient) WriteMessage(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || !c.IsConnected() {
		return core.ErrNotConnected
	}

	return c.conn.WriteMessage(gws.OpcodeText, data)
}

func (c *WSClient) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.WriteMessage(data)
}

// SendText writes a plain text frame such as the "ping" keepalive both exchanges expect.
func (c *WSClient) SendText(text string) error {
	return c.WriteMessage([]byte(text))
}

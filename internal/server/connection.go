package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Connection is one accepted duplex channel bound to an Identity for its
// whole lifetime. The owning session is the only writer of lifecycle state;
// the router only calls Send.
type Connection struct {
	conn     *websocket.Conn
	identity chat.Identity
	addr     string
	log      *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool

	writerDone chan struct{}
}

// NewConnection binds conn to id, assigning the session ID and color that are
// reported in the from field of relayed messages.
func NewConnection(conn *websocket.Conn, id chat.Identity, addr string, sendBuffer int, log *slog.Logger) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBufferSize
	}
	id.ID = uuid.NewString()
	id.Color = randomColor()

	return &Connection{
		conn:       conn,
		identity:   id,
		addr:       addr,
		log:        log.With("session", id.ID, "nickname", id.Nickname, "room", id.Room, "addr", addr),
		send:       make(chan []byte, sendBuffer),
		writerDone: make(chan struct{}),
	}
}

func randomColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(0x1000000))
}

// Identity returns the identity the connection joined with.
func (c *Connection) Identity() chat.Identity {
	return c.identity
}

// ID returns the server-assigned session ID.
func (c *Connection) ID() string {
	return c.identity.ID
}

// Send queues one frame without blocking. It returns false when the
// connection is closing or its buffer is full.
func (c *Connection) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend stops accepting frames; the write pump flushes what is queued,
// sends a close frame and exits.
func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// forceClose closes the underlying channel, unblocking the session's read.
func (c *Connection) forceClose() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Error("error closing connection", "err", err)
	}
}

// setupReadConnection configures the read limit, read deadline and pong
// handler for the WebSocket connection.
func (c *Connection) setupReadConnection(maxMessageSize int64) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("error setting initial read deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("error setting read deadline in pong handler", "err", err)
		}
		return nil
	})
}

// readFrame blocks until a text frame arrives. Other data frames are skipped.
func (c *Connection) readFrame() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
		c.log.Debug("ignoring non-text frame", "type", messageType)
	}
}

// rejectChannel closes a channel that never joined, reporting code and reason.
func rejectChannel(conn *websocket.Conn, code int, reason string, log *slog.Logger) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil && !isExpectedCloseError(err) {
		log.Warn("error writing rejection", "err", err)
	}
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Warn("error closing rejected connection", "err", err)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.forceClose()
		close(c.writerDone)
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Connection) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// handleMessage writes one outgoing frame and returns false if the
// connection should be closed.
func (c *Connection) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline", "err", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing message", "err", err)
		}
		return false
	}
	return true
}

func (c *Connection) writeCloseMessage() bool {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("error writing close message", "err", err)
	}
	return false
}

// handlePing sends a ping message to keep the connection alive.
func (c *Connection) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline for ping", "err", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing ping", "err", err)
		}
		return false
	}
	return true
}

// classifyReadError logs why the receive loop ended. Graceful closes and
// transport faults end the session the same way; only the log differs.
func (c *Connection) classifyReadError(err error, maxMessageSize int64) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", "limit", maxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.log.Info("client disconnected", "reason", err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), isExpectedCloseError(err):
		c.log.Info("connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err):
		c.log.Warn("unexpected close", "err", err)
	default:
		c.log.Error("websocket read error", "err", err)
	}
}

package server

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// CloseNicknameTaken is the close code sent when a join conflicts with an
// identity already present in the room.
const CloseNicknameTaken = 4009

// SessionState is the lifecycle stage of a session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateValidating
	StateJoined
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateValidating:
		return "validating"
	case StateJoined:
		return "joined"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one accepted channel from join to teardown.
type Session struct {
	conn     *websocket.Conn
	addr     string
	nickname string
	room     string

	registry *Registry
	router   *Router
	metrics  *Metrics
	cfg      Config
	log      *slog.Logger
	ctx      context.Context

	state      atomic.Int32
	connection *Connection
}

func newSession(h *Hub, conn *websocket.Conn, addr, nickname, room string) *Session {
	return &Session{
		conn:     conn,
		addr:     addr,
		nickname: nickname,
		room:     room,
		registry: h.registry,
		router:   h.router,
		metrics:  h.metrics,
		cfg:      h.cfg,
		log:      h.log,
		ctx:      h.ctx,
	}
}

// State reports the session's current lifecycle stage.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(next SessionState) {
	s.state.Store(int32(next))
}

// Run executes the whole session and returns once it is Closed.
func (s *Session) Run() {
	defer s.setState(StateClosed)

	s.setState(StateValidating)
	if !s.join() {
		return
	}

	c := s.connection
	go c.writePump()

	s.router.Broadcast(chat.JoinNotice(c.Identity()), c, false)
	s.receive()
	s.teardown()
}

// join validates the requested identity and registers it. On failure the
// channel is closed with a rejection status and nothing is broadcast.
func (s *Session) join() bool {
	id, err := chat.ValidateJoin(s.nickname, s.room)
	if err != nil {
		s.metrics.Joins.WithLabelValues(joinInvalid).Inc()
		s.log.Info("join rejected", "addr", s.addr, "nickname", s.nickname, "room", s.room, "reason", err)
		rejectChannel(s.conn, websocket.ClosePolicyViolation, err.Error(), s.log)
		s.setState(StateClosing)
		return false
	}

	c := NewConnection(s.conn, id, s.addr, s.cfg.SendBufferSize, s.log)
	if !s.registry.TryRegister(c) {
		s.metrics.Joins.WithLabelValues(joinConflict).Inc()
		c.log.Info("join rejected", "reason", ErrNicknameTaken)
		rejectChannel(c.conn, CloseNicknameTaken, ErrNicknameTaken.Error(), c.log)
		s.setState(StateClosing)
		return false
	}

	// Shutdown may have snapshotted the registry before this insert.
	if s.ctx.Err() != nil {
		s.registry.Deregister(c.Identity())
		rejectChannel(c.conn, websocket.CloseGoingAway, "server shutting down", c.log)
		s.setState(StateClosing)
		return false
	}

	s.connection = c
	s.setState(StateJoined)
	s.metrics.Joins.WithLabelValues(joinAccepted).Inc()
	s.metrics.SessionsActive.Inc()
	c.log.Info("joined")
	return true
}

// receive relays frames until the peer closes or the transport fails.
// Frames that cannot be decoded are logged and skipped.
func (s *Session) receive() {
	c := s.connection
	c.setupReadConnection(s.cfg.MaxMessageSize)

	for {
		data, err := c.readFrame()
		if err != nil {
			c.classifyReadError(err, s.cfg.MaxMessageSize)
			return
		}

		msg, err := chat.Decode(data)
		if err != nil {
			s.metrics.Malformed.Inc()
			c.log.Warn("discarding invalid message", "err", err, "malformed", errors.Is(err, chat.ErrMalformed))
			continue
		}

		stamped := msg.Stamp(c.Identity())
		c.log.Debug("message received", "type", stamped.Type, "length", len(stamped.Content))
		s.router.Broadcast(stamped, c, true)
	}
}

// teardown runs at most once per joined session: deregister, tell the room,
// then close the channel.
func (s *Session) teardown() {
	if !s.state.CompareAndSwap(int32(StateJoined), int32(StateClosing)) {
		return
	}

	c := s.connection
	id := c.Identity()
	if s.registry.Deregister(id) {
		s.metrics.SessionsActive.Dec()
	}
	s.router.Broadcast(chat.LeaveNotice(id), c, true)

	c.closeSend()
	<-c.writerDone
	c.log.Info("left")
}

// Package server coordinates session startup, room fan-out, and connection
// cleanup for the room relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub owns the shared Registry and Router and tracks every running session
// so they can be stopped together.
type Hub struct {
	cfg      Config
	log      *slog.Logger
	registry *Registry
	router   *Router
	metrics  *Metrics
	origins  *originPolicy
	upgrader websocket.Upgrader

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a Hub ready to accept sessions.
func NewHub(cfg Config, log *slog.Logger) *Hub {
	cfg = cfg.Sanitize()
	ctx, cancel := context.WithCancel(context.Background())
	registry := NewRegistry()
	metrics := NewMetrics()
	origins := newOriginPolicy(cfg.AllowedOrigins(), log)

	return &Hub{
		cfg:      cfg,
		log:      log,
		registry: registry,
		router:   NewRouter(registry, metrics, log),
		metrics:  metrics,
		origins:  origins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Registry exposes the hub's presence registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Metrics exposes the hub's collectors.
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

// Config returns the sanitized configuration the hub runs with.
func (h *Hub) Config() Config {
	return h.cfg
}

// accepting reports whether new sessions may start.
func (h *Hub) accepting() bool {
	return h.ctx.Err() == nil
}

// Serve runs a session for an accepted channel on its own goroutine. It
// returns false, without taking ownership of conn, once Shutdown has begun.
func (h *Hub) Serve(conn *websocket.Conn, addr, nickname, room string) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.wg.Add(1)
	h.mu.Unlock()

	s := newSession(h, conn, addr, nickname, room)
	go func() {
		defer h.wg.Done()
		s.Run()
	}()
	return true
}

// shutdownClients closes every joined channel; each session then runs its
// own teardown.
func (h *Hub) shutdownClients() {
	h.log.Info("shutting down all client connections")

	conns := h.registry.Connections()
	for _, c := range conns {
		c.forceClose()
	}

	h.log.Info("closed client connections", "count", len(conns))
}

// Shutdown stops accepting sessions, closes the open ones and waits for
// their goroutines, or until timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("initiating hub shutdown")

	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}

package server

import (
	"encoding/json"
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// Router fans a message out to the connections of one room.
type Router struct {
	registry *Registry
	metrics  *Metrics
	log      *slog.Logger
}

// NewRouter creates a Router reading membership from registry.
func NewRouter(registry *Registry, metrics *Metrics, log *slog.Logger) *Router {
	return &Router{registry: registry, metrics: metrics, log: log}
}

// Broadcast delivers msg to every connection in room *msg.To and returns how
// many recipients accepted it. With excludeSelf set, origin is skipped.
// Sends only enqueue; a full or closed recipient is skipped.
func (r *Router) Broadcast(msg chat.Message, origin *Connection, excludeSelf bool) int {
	if msg.To == nil {
		r.log.Warn("dropping message without target room")
		return 0
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("error encoding message", "err", err)
		return 0
	}

	recipients := r.registry.SnapshotForRoom(*msg.To)
	delivered := 0
	for _, c := range recipients {
		if excludeSelf && c == origin {
			continue
		}
		if !c.Send(payload) {
			r.metrics.DeliveryFailures.Inc()
			r.log.Warn("skipping delivery to peer", "room", *msg.To, "peer", c.Identity().Nickname, "session", c.ID())
			continue
		}
		delivered++
	}

	r.metrics.Relayed.WithLabelValues(string(msg.Type)).Inc()
	r.log.Debug("broadcast", "room", *msg.To, "type", msg.Type, "recipients", delivered)
	return delivered
}

package server

import (
	"encoding/json"
	"net/http"
)

// PresenceHandler lists the joined identities. Mounted with a {room} path
// value it lists only that room.
func (h *Hub) PresenceHandler(w http.ResponseWriter, r *http.Request) {
	ids := h.registry.SnapshotAll(r.PathValue("room"))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ids); err != nil {
		h.log.Warn("error writing presence response", "err", err)
	}
}

// Package server wires HTTP handlers into a ServeMux for the room relay via
// routing helpers.
package server

import (
	"net/http"

	"github.com/rs/cors"
)

// SetupRoutes returns the application's handler: health check, WebSocket
// endpoint, test page, presence API and metrics. The presence API is wrapped
// with CORS so browser dashboards on other origins can read it.
func SetupRoutes(h *Hub) http.Handler {
	presence := cors.New(cors.Options{
		AllowedOrigins: h.cfg.CORSAllowedOrigins(),
		AllowedMethods: []string{http.MethodGet},
	}).Handler(http.HandlerFunc(h.PresenceHandler))

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", HealthHandler)
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/test", h.TestPageHandler)
	mux.Handle("GET /clients", presence)
	mux.Handle("GET /clients/{room}", presence)
	mux.Handle("GET /metrics", h.metrics.Handler())
	return mux
}

// Package server implements the room-scoped WebSocket relay.
//
// Clients join a room under a nickname through the /ws endpoint. The Registry
// records who is present where, the Router fans each message out to the
// members of its room, and a Session drives every connection from join to
// teardown, announcing arrivals and departures with server notices.
//
// Each concern lives in its own file: config, registry, connection, session,
// router, hub and the HTTP handlers.
package server

package server

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// ErrNicknameTaken is returned when the (nickname, room) pair is already joined.
var ErrNicknameTaken = errors.New("nickname already in use in this room")

type identityKey struct {
	nickname string
	room     string
}

func keyOf(id chat.Identity) identityKey {
	return identityKey{nickname: id.Nickname, room: id.Room}
}

// Registry maps joined identities to their connections. It is the single
// source of truth for who is present in which room.
// Snapshots copy out under the read lock; nothing is sent while it is held.
type Registry struct {
	mu    sync.RWMutex
	conns map[identityKey]*Connection
	rooms map[string]map[identityKey]*Connection
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[identityKey]*Connection),
		rooms: make(map[string]map[identityKey]*Connection),
	}
}

// TryRegister inserts c under its identity unless the same (nickname, room)
// pair is already present. The check and the insert happen under one lock.
func (r *Registry) TryRegister(c *Connection) bool {
	key := keyOf(c.Identity())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[key]; exists {
		return false
	}

	r.conns[key] = c
	members, ok := r.rooms[key.room]
	if !ok {
		members = make(map[identityKey]*Connection)
		r.rooms[key.room] = members
	}
	members[key] = c
	return true
}

// Deregister removes the entry for id. Removing an absent identity is a no-op.
// When id carries a session ID, only the entry owned by that session is
// removed, so a late teardown cannot evict a newer session that reused the
// same nickname.
func (r *Registry) Deregister(id chat.Identity) bool {
	key := keyOf(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.conns[key]
	if !exists {
		return false
	}
	if id.ID != "" && c.ID() != id.ID {
		return false
	}

	delete(r.conns, key)
	if members, ok := r.rooms[key.room]; ok {
		delete(members, key)
		if len(members) == 0 {
			delete(r.rooms, key.room)
		}
	}
	return true
}

// SnapshotForRoom returns the connections currently joined to room.
func (r *Registry) SnapshotForRoom(room string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.rooms[room])
}

// SnapshotAll lists the present identities, optionally restricted to one
// room, ordered by room then nickname.
func (r *Registry) SnapshotAll(room string) []chat.Identity {
	r.mu.RLock()
	conns := lo.Values(r.conns)
	r.mu.RUnlock()

	if room != "" {
		conns = lo.Filter(conns, func(c *Connection, _ int) bool {
			return c.Identity().Room == room
		})
	}

	ids := lo.Map(conns, func(c *Connection, _ int) chat.Identity {
		return c.Identity()
	})
	slices.SortFunc(ids, func(a, b chat.Identity) int {
		return cmp.Or(cmp.Compare(a.Room, b.Room), cmp.Compare(a.Nickname, b.Nickname))
	})
	return ids
}

// Connections returns every registered connection.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.conns)
}

// Len returns the number of joined sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

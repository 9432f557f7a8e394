// Package runtime owns the live-connection state and the event dispatch
// core. It orchestrates fan-out without containing domain rules.
package runtime

import (
	"sync"

	"github.com/rakshit0960/PeerTalk/contract"
	"github.com/rakshit0960/PeerTalk/domain"
)

type connSet map[domain.ConnID]struct{}

// connection is the registry's view of one live connection: its identity,
// its outward-send capability, and the rooms it currently belongs to. The
// transport owns the socket itself.
type connection struct {
	user   domain.UserID
	sink   contract.Sink
	rooms  map[domain.RoomID]struct{}
	typing map[domain.ConversationID]struct{}
}

// Registry maps users to their live connections and rooms to their member
// sets. Reads (fan-out enumeration) run concurrently; structural writes
// (admit, join, remove) are serialized. The maps are never exposed.
type Registry struct {
	mu          sync.RWMutex
	connections map[domain.ConnID]*connection
	roomMembers map[domain.RoomID]connSet
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[domain.ConnID]*connection),
		roomMembers: make(map[domain.RoomID]connSet),
	}
}

// Admit registers an authenticated connection and places it into its
// identity room in the same critical section, so the connection is
// reachable by identity from the instant it exists.
func (r *Registry) Admit(conn domain.ConnID, user domain.UserID, sink contract.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &connection{
		user:   user,
		sink:   sink,
		rooms:  make(map[domain.RoomID]struct{}),
		typing: make(map[domain.ConversationID]struct{}),
	}
	r.connections[conn] = c
	r.joinLocked(conn, c, domain.IdentityRoom(user))
}

// Join adds the connection to a room. Idempotent: joining twice is a no-op,
// never a duplicate delivery.
func (r *Registry) Join(conn domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[conn]
	if !ok {
		// Already torn down; a join racing a disconnect loses.
		return
	}
	r.joinLocked(conn, c, room)
}

func (r *Registry) joinLocked(conn domain.ConnID, c *connection, room domain.RoomID) {
	c.rooms[room] = struct{}{}
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(connSet)
	}
	r.roomMembers[room][conn] = struct{}{}
}

// Remove tears the connection down: every room membership and the
// registration itself go in one critical section, so an emission started
// after Remove returns can never enumerate the connection. It reports the
// identity and the conversations the connection was still typing in, for
// synthetic stop-typing cleanup.
func (r *Registry) Remove(conn domain.ConnID) (domain.UserID, []domain.ConversationID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[conn]
	if !ok {
		return 0, nil, false
	}
	delete(r.connections, conn)

	for room := range c.rooms {
		if members, ok := r.roomMembers[room]; ok {
			delete(members, conn)
			// Empty rooms are inert; drop the entry entirely.
			if len(members) == 0 {
				delete(r.roomMembers, room)
			}
		}
	}

	var typing []domain.ConversationID
	for conversation := range c.typing {
		typing = append(typing, conversation)
	}
	return c.user, typing, true
}

// SetTyping records or clears the ephemeral typing flag for one
// (connection, conversation) pair. The flag only exists so disconnect
// cleanup can emit the stop transition the client never sent.
func (r *Registry) SetTyping(conn domain.ConnID, conversation domain.ConversationID, typing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[conn]
	if !ok {
		return
	}
	if typing {
		c.typing[conversation] = struct{}{}
	} else {
		delete(c.typing, conversation)
	}
}

// SinksFor returns the sinks of every member of a room. Nil for an absent
// or empty room: emission to nobody is a silent no-op.
func (r *Registry) SinksFor(room domain.RoomID) []contract.Sink {
	return r.sinksFor(room, "")
}

// SinksForExcept is SinksFor minus one connection, used for broadcasts
// that must not echo back to their sender.
func (r *Registry) SinksForExcept(room domain.RoomID, except domain.ConnID) []contract.Sink {
	return r.sinksFor(room, except)
}

func (r *Registry) sinksFor(room domain.RoomID, except domain.ConnID) []contract.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.Sink
	for conn := range members {
		if conn == except {
			continue
		}
		if c, exists := r.connections[conn]; exists {
			sinks = append(sinks, c.sink)
		}
	}
	return sinks
}

// Stats is a point-in-time snapshot for the periodic reporter.
func (r *Registry) Stats() (connections, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections), len(r.roomMembers)
}

package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
)

type nopSink struct{}

func (nopSink) Consume(_ context.Context, _ event.Outbound) error { return nil }

func TestRegistry_Admit_JoinsIdentityRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := domain.ConnID(uuid.NewString())
	sink := nopSink{}

	// Given no connection is registered
	req.Nil(registry.SinksFor(domain.IdentityRoom(7)))

	// When a connection is admitted
	registry.Admit(conn, 7, sink)

	// Then it is reachable through its identity room, and nothing else
	req.Len(registry.SinksFor(domain.IdentityRoom(7)), 1)
	req.Nil(registry.SinksFor(domain.IdentityRoom(9)))
}

func TestRegistry_Admit_MultiDevicePresence(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When the same user admits two connections
	registry.Admit("conn-a", 7, nopSink{})
	registry.Admit("conn-b", 7, nopSink{})

	// Then the identity room reaches both devices
	req.Len(registry.SinksFor(domain.IdentityRoom(7)), 2)
}

func TestRegistry_Join_IsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := domain.ConnID(uuid.NewString())
	room := domain.ConversationRoom(42)

	registry.Admit(conn, 7, nopSink{})

	// When the connection joins the same room twice
	registry.Join(conn, room)
	registry.Join(conn, room)

	// Then a broadcast reaches it exactly once
	req.Len(registry.SinksFor(room), 1)
}

func TestRegistry_Join_UnknownConnectionIsNoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// A join racing a disconnect loses
	registry.Join("gone", domain.ConversationRoom(42))

	req.Nil(registry.SinksFor(domain.ConversationRoom(42)))
}

func TestRegistry_Remove_ClearsAllMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := domain.ConnID(uuid.NewString())

	// Given a connection in its identity room and two conversation rooms
	registry.Admit(conn, 7, nopSink{})
	registry.Join(conn, domain.ConversationRoom(42))
	registry.Join(conn, domain.ConversationRoom(43))

	// When it is removed
	user, typing, ok := registry.Remove(conn)

	// Then no room can reach it anymore
	req.True(ok)
	req.EqualValues(7, user)
	req.Empty(typing)
	req.Nil(registry.SinksFor(domain.IdentityRoom(7)))
	req.Nil(registry.SinksFor(domain.ConversationRoom(42)))
	req.Nil(registry.SinksFor(domain.ConversationRoom(43)))

	connections, rooms := registry.Stats()
	req.Zero(connections)
	req.Zero(rooms)
}

func TestRegistry_Remove_ReportsTypingConversations(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	conn := domain.ConnID(uuid.NewString())

	registry.Admit(conn, 7, nopSink{})
	registry.SetTyping(conn, 42, true)
	registry.SetTyping(conn, 43, true)
	registry.SetTyping(conn, 43, false)

	_, typing, ok := registry.Remove(conn)
	req.True(ok)
	req.Equal([]domain.ConversationID{42}, typing)
}

func TestRegistry_Remove_UnknownConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, _, ok := registry.Remove("never-admitted")
	req.False(ok)
}

func TestRegistry_SinksForExcept_ExcludesSender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := domain.ConversationRoom(42)

	registry.Admit("conn-a", 7, nopSink{})
	registry.Admit("conn-b", 9, nopSink{})
	registry.Join("conn-a", room)
	registry.Join("conn-b", room)

	req.Len(registry.SinksFor(room), 2)
	req.Len(registry.SinksForExcept(room, "conn-a"), 1)
}

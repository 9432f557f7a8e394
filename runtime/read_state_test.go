package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
	"github.com/rakshit0960/PeerTalk/mocks"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *Registry, *mocks.MockMessageStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	router, registry := newTestRouter()
	return NewCoordinator(router, store), registry, store
}

func TestCoordinator_TypingStart_NeverEchoesToSender(t *testing.T) {
	req := require.New(t)
	coordinator, registry, _ := newTestCoordinator(t)
	ctx := context.Background()

	// Given two connections joined to the same conversation room
	alice, bob := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, alice)
	registry.Admit("9-a", 9, bob)
	registry.Join("7-a", domain.ConversationRoom(42))
	registry.Join("9-a", domain.ConversationRoom(42))

	// When Alice starts typing
	payload := event.TypingStartPayload{ConversationID: 42, UserID: 7, UserName: "Alice"}
	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: alice},
		frame(t, event.TypingStart, payload))

	// Then Bob sees the indicator and Alice never does
	req.Equal([]string{event.UserTyping}, bob.Names())
	req.Empty(alice.Events())

	delivered, ok := bob.Events()[0].Data.(event.UserTypingPayload)
	req.True(ok)
	req.Equal(event.UserTypingPayload{UserID: 7, UserName: "Alice", ConversationID: 42}, delivered)
}

func TestCoordinator_TypingIsRoomScoped(t *testing.T) {
	req := require.New(t)
	coordinator, registry, _ := newTestCoordinator(t)
	ctx := context.Background()

	// Bob is a participant but never joined the conversation room
	alice, bob := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, alice)
	registry.Admit("9-a", 9, bob)
	registry.Join("7-a", domain.ConversationRoom(42))

	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: alice},
		frame(t, event.TypingStart, event.TypingStartPayload{ConversationID: 42, UserID: 7, UserName: "Alice"}))

	// Typing is only meaningful to someone viewing the conversation
	req.Empty(bob.Events())
}

func TestCoordinator_TypingStop(t *testing.T) {
	req := require.New(t)
	coordinator, registry, _ := newTestCoordinator(t)
	ctx := context.Background()

	alice, bob := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, alice)
	registry.Admit("9-a", 9, bob)
	registry.Join("7-a", domain.ConversationRoom(42))
	registry.Join("9-a", domain.ConversationRoom(42))

	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: alice},
		frame(t, event.TypingStop, event.TypingStopPayload{ConversationID: 42, UserID: 7}))

	req.Equal([]string{event.UserStopTyping}, bob.Names())
	req.Empty(alice.Events())
}

func TestCoordinator_ConversationRead_EmitsOneReceiptToSender(t *testing.T) {
	req := require.New(t)
	coordinator, registry, store := newTestCoordinator(t)
	ctx := context.Background()

	reader, sender := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, reader)
	registry.Admit("9-a", 9, sender)

	// The store flips three messages, all from user 9
	store.EXPECT().
		MarkRead(gomock.Any(), domain.ConversationID(42), domain.UserID(7)).
		Return([]domain.ReadMessage{
			{ID: 1, SenderID: 9},
			{ID: 2, SenderID: 9},
			{ID: 3, SenderID: 9},
		}, nil)

	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: reader},
		frame(t, event.ConversationRead, event.ConversationReadPayload{ConversationID: 42}))

	// Exactly one receipt, to the original sender's identity room
	req.Equal([]string{event.MessagesReadReceipt}, sender.Names())
	req.Empty(reader.Events())

	receipt, ok := sender.Events()[0].Data.(event.ReadReceiptPayload)
	req.True(ok)
	req.EqualValues(42, receipt.ConversationID)
	req.Equal([]int64{1, 2, 3}, receipt.MessageIDs)
}

func TestCoordinator_ConversationRead_ZeroAffectedEmitsNothing(t *testing.T) {
	req := require.New(t)
	coordinator, registry, store := newTestCoordinator(t)
	ctx := context.Background()

	reader, sender := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, reader)
	registry.Admit("9-a", 9, sender)

	store.EXPECT().
		MarkRead(gomock.Any(), domain.ConversationID(42), domain.UserID(7)).
		Return(nil, nil)

	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: reader},
		frame(t, event.ConversationRead, event.ConversationReadPayload{ConversationID: 42}))

	// No notification noise when nothing changed
	req.Empty(sender.Events())
	req.Empty(reader.Events())
}

func TestCoordinator_ConversationRead_StoreFailure(t *testing.T) {
	req := require.New(t)
	coordinator, registry, store := newTestCoordinator(t)
	ctx := context.Background()

	reader, sender := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, reader)
	registry.Admit("9-a", 9, sender)

	store.EXPECT().
		MarkRead(gomock.Any(), domain.ConversationID(42), domain.UserID(7)).
		Return(nil, fmt.Errorf("store unavailable"))

	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: reader},
		frame(t, event.ConversationRead, event.ConversationReadPayload{ConversationID: 42}))

	// The failure is reported to the caller only; no partial broadcast
	req.Equal([]string{event.Error}, reader.Names())
	req.Empty(sender.Events())
}

func TestCoordinator_ConnectionClosed_EmitsSyntheticTypingStop(t *testing.T) {
	req := require.New(t)
	coordinator, registry, _ := newTestCoordinator(t)
	ctx := context.Background()

	alice, bob := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, alice)
	registry.Admit("9-a", 9, bob)
	registry.Join("7-a", domain.ConversationRoom(42))
	registry.Join("9-a", domain.ConversationRoom(42))

	// Given Alice was typing when her connection dropped
	coordinator.router.Dispatch(ctx, Origin{Conn: "7-a", User: 7, Sink: alice},
		frame(t, event.TypingStart, event.TypingStartPayload{ConversationID: 42, UserID: 7, UserName: "Alice"}))

	// When the connection tears down
	coordinator.ConnectionClosed(ctx, "7-a")

	// Then Bob's indicator is cleared instead of sticking forever
	req.Equal([]string{event.UserTyping, event.UserStopTyping}, bob.Names())

	stop, ok := bob.Events()[1].Data.(event.UserStopTypingPayload)
	req.True(ok)
	req.Equal(event.UserStopTypingPayload{UserID: 7, ConversationID: 42}, stop)
}

func TestCoordinator_NoDeliveryAfterDisconnect(t *testing.T) {
	req := require.New(t)
	coordinator, registry, _ := newTestCoordinator(t)
	ctx := context.Background()

	gone, sender := &captureSink{}, &captureSink{}
	registry.Admit("7-a", 7, gone)
	registry.Admit("9-a", 9, sender)
	registry.Join("7-a", domain.ConversationRoom(42))

	coordinator.ConnectionClosed(ctx, "7-a")

	// A broadcast emitted immediately after disconnect never reaches the
	// closed connection
	coordinator.router.Dispatch(ctx, Origin{Conn: "9-a", User: 9, Sink: sender},
		frame(t, event.NewMessage, event.MessagePayload{
			ID: 1, Content: "late", SenderID: 9, ReceiverID: 7, ConversationID: 42,
		}))

	req.Empty(gone.Events())
}

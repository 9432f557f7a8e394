package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"

	"github.com/rakshit0960/PeerTalk/contract"
	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
)

// Coordinator handles the ephemeral, non-persisted state transitions:
// typing indicators and read-receipt marking. It is a set of handlers
// layered on the Router, not a dispatch path of its own.
type Coordinator struct {
	router *Router
	store  contract.MessageStore
}

func NewCoordinator(router *Router, store contract.MessageStore) *Coordinator {
	c := &Coordinator{router: router, store: store}
	router.Register(event.TypingStart, c.handleTypingStart)
	router.Register(event.TypingStop, c.handleTypingStop)
	router.Register(event.ConversationRead, c.handleConversationRead)
	return c
}

// Typing indicators are room-scoped: only someone actively viewing the
// conversation cares. The sender is excluded so its own indicator never
// echoes back.
func (c *Coordinator) handleTypingStart(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.TypingStartPayload](c.router, data)
	if err != nil {
		return err
	}
	c.router.registry.SetTyping(origin.Conn, payload.ConversationID, true)
	c.router.EmitExcept(ctx, domain.ConversationRoom(payload.ConversationID), origin.Conn,
		event.Outbound{Event: event.UserTyping, Data: event.UserTypingPayload{
			UserID:         payload.UserID,
			UserName:       payload.UserName,
			ConversationID: payload.ConversationID,
		}})
	return nil
}

func (c *Coordinator) handleTypingStop(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.TypingStopPayload](c.router, data)
	if err != nil {
		return err
	}
	c.router.registry.SetTyping(origin.Conn, payload.ConversationID, false)
	c.router.EmitExcept(ctx, domain.ConversationRoom(payload.ConversationID), origin.Conn,
		event.Outbound{Event: event.UserStopTyping, Data: event.UserStopTypingPayload{
			UserID:         payload.UserID,
			ConversationID: payload.ConversationID,
		}})
	return nil
}

// handleConversationRead flips every unread message addressed to the caller
// in one store transaction, then notifies each original sender's identity
// room. The caller's identity comes from admission, never from the payload,
// so a connection can only ever mark its own messages read. Zero affected
// messages emit nothing; a store failure is reported to the caller and
// nothing is broadcast.
func (c *Coordinator) handleConversationRead(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.ConversationReadPayload](c.router, data)
	if err != nil {
		return err
	}

	read, err := c.store.MarkRead(ctx, payload.ConversationID, origin.User)
	if err != nil {
		return fmt.Errorf("mark read failed: %w", err)
	}
	if len(read) == 0 {
		return nil
	}

	bySender := lo.GroupBy(read, func(m domain.ReadMessage) domain.UserID {
		return m.SenderID
	})
	for sender, messages := range bySender {
		ids := lo.Map(messages, func(m domain.ReadMessage, _ int) int64 { return m.ID })
		c.router.Emit(ctx, domain.IdentityRoom(sender),
			event.Outbound{Event: event.MessagesReadReceipt, Data: event.ReadReceiptPayload{
				ConversationID: payload.ConversationID,
				MessageIDs:     ids,
			}})
	}
	return nil
}

// ConnectionClosed tears the connection down and emits the synthetic
// stop-typing transitions an unclean disconnect would otherwise leave
// stuck on peers. Removal happens first, so no broadcast started after
// this call can reach the closed connection.
func (c *Coordinator) ConnectionClosed(ctx context.Context, conn domain.ConnID) {
	user, typing, ok := c.router.registry.Remove(conn)
	if !ok {
		return
	}
	for _, conversation := range typing {
		c.router.Emit(ctx, domain.ConversationRoom(conversation),
			event.Outbound{Event: event.UserStopTyping, Data: event.UserStopTypingPayload{
				UserID:         user,
				ConversationID: conversation,
			}})
	}
}

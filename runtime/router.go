package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/rakshit0960/PeerTalk/contract"
	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
	"github.com/rakshit0960/PeerTalk/observability"
)

// Origin identifies the connection an inbound event arrived on. User is the
// identity resolved at admission; every authorization decision uses it, never
// a payload field.
type Origin struct {
	Conn domain.ConnID
	User domain.UserID
	Sink contract.Sink
}

// HandlerFunc processes one validated-by-itself inbound payload. A returned
// error is reported to the origin only, as a scoped error event.
type HandlerFunc func(ctx context.Context, origin Origin, data json.RawMessage) error

// Router is the dispatch core. It decodes the envelope once, hands the
// payload to the handler registered for the event name, and exposes the
// room-emission primitives the handlers route with. Failures are isolated
// per event, per connection: a handler error never closes the connection
// and never touches another connection.
type Router struct {
	log      *slog.Logger
	registry contract.IRegistry
	validate *validator.Validate
	metrics  *observability.Metrics
	handlers map[string]HandlerFunc
}

func NewRouter(log *slog.Logger, registry contract.IRegistry, metrics *observability.Metrics) *Router {
	rt := &Router{
		log:      log,
		registry: registry,
		validate: validator.New(),
		metrics:  metrics,
		handlers: make(map[string]HandlerFunc),
	}
	rt.Register(event.JoinConversation, rt.handleJoinConversation)
	rt.Register(event.ConversationStarted, rt.handleConversationStarted)
	rt.Register(event.NewMessage, rt.handleNewMessage)
	return rt
}

// Register binds an event name to its handler. The typing/read coordinator
// and the call relay register themselves here; they have no dispatch path
// of their own.
func (rt *Router) Register(name string, h HandlerFunc) {
	rt.handlers[name] = h
}

// Dispatch routes one raw inbound frame. Called from the owning
// connection's read loop, so one client's events are processed in arrival
// order.
func (rt *Router) Dispatch(ctx context.Context, origin Origin, raw []byte) {
	var env event.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		rt.metrics.ValidationFailures.Inc()
		rt.sendError(ctx, origin, fmt.Sprintf("malformed frame: %v", err))
		return
	}

	rt.metrics.EventsIn.WithLabelValues(env.Event).Inc()

	handler, ok := rt.handlers[env.Event]
	if !ok {
		rt.metrics.ValidationFailures.Inc()
		rt.sendError(ctx, origin, fmt.Sprintf("unknown event %q", env.Event))
		return
	}

	if err := handler(ctx, origin, env.Data); err != nil {
		rt.log.Warn("event rejected",
			"event", env.Event,
			"conn", origin.Conn,
			"user", origin.User,
			"error", err)
		rt.sendError(ctx, origin, err.Error())
	}
}

// Emit fans one event out to every member of a room. An absent or empty
// room is a silent no-op. A member whose buffer is full is skipped; the
// rest of the room is not delayed.
func (rt *Router) Emit(ctx context.Context, room domain.RoomID, out event.Outbound) {
	rt.emit(ctx, rt.registry.SinksFor(room), out)
}

// EmitExcept is Emit minus the sending connection, for broadcasts that must
// never echo back.
func (rt *Router) EmitExcept(ctx context.Context, room domain.RoomID, except domain.ConnID, out event.Outbound) {
	rt.emit(ctx, rt.registry.SinksForExcept(room, except), out)
}

func (rt *Router) emit(ctx context.Context, sinks []contract.Sink, out event.Outbound) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, out); err != nil {
			rt.metrics.DroppedDeliveries.Inc()
			rt.log.Warn("delivery dropped", "event", out.Event, "error", err)
			continue
		}
		rt.metrics.EventsOut.WithLabelValues(out.Event).Inc()
	}
}

func (rt *Router) sendError(ctx context.Context, origin Origin, details string) {
	out := event.Outbound{Event: event.Error, Data: event.ErrorPayload{Details: details}}
	if err := origin.Sink.Consume(ctx, out); err != nil {
		rt.log.Warn("error event dropped", "conn", origin.Conn, "error", err)
	}
}

func (rt *Router) handleJoinConversation(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.JoinConversationPayload](rt, data)
	if err != nil {
		return err
	}
	rt.registry.Join(origin.Conn, domain.ConversationRoom(payload.ID))
	return nil
}

// handleConversationStarted relays a freshly persisted conversation record
// to every participant's identity room, the initiator included; the client
// treats the echo as idempotent.
func (rt *Router) handleConversationStarted(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.ConversationStartedPayload](rt, data)
	if err != nil {
		return err
	}
	out := event.Outbound{Event: event.ConversationCreated, Data: payload.Conversation}
	for _, participant := range payload.Conversation.Participants {
		rt.Emit(ctx, domain.IdentityRoom(participant.ID), out)
	}
	return nil
}

// handleNewMessage delivers point-to-point by recipient identity, not by
// conversation room: a participant who never opened the conversation still
// gets the event on every device.
func (rt *Router) handleNewMessage(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.MessagePayload](rt, data)
	if err != nil {
		return err
	}
	rt.Emit(ctx, domain.IdentityRoom(payload.ReceiverID),
		event.Outbound{Event: event.GetNewMessage, Data: payload})
	return nil
}

// decodePayload unmarshals and validates one payload. Any failure counts as
// a validation failure and leaves no state behind.
func decodePayload[T any](rt *Router, data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		rt.metrics.ValidationFailures.Inc()
		return payload, fmt.Errorf("malformed payload: %w", err)
	}
	if err := rt.validate.Struct(payload); err != nil {
		rt.metrics.ValidationFailures.Inc()
		return payload, fmt.Errorf("invalid payload: %w", err)
	}
	return payload, nil
}

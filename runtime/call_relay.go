package runtime

import (
	"context"
	"encoding/json"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
)

// CallRelay forwards call lifecycle and WebRTC negotiation payloads between
// exactly two identities. It holds no call state: every signaling message
// names its own target, and the server never knows whether a call is in
// progress. Each handler validates payload shape, rewrites the target into
// the authenticated origin, and forwards unconditionally; sequencing is the
// clients' concern. The per-connection FIFO sinks keep offer, answer, and
// candidates in order at each target.
type CallRelay struct {
	router *Router
}

func NewCallRelay(router *Router) *CallRelay {
	r := &CallRelay{router: router}
	router.Register(event.VideoCallRequest, r.lifecycle(event.VideoCallRequest))
	router.Register(event.VideoCallAccepted, r.lifecycle(event.VideoCallAccepted))
	router.Register(event.VideoCallEnded, r.lifecycle(event.VideoCallEnded))
	router.Register(event.VideoOffer, r.handleOffer)
	router.Register(event.VideoAnswer, r.handleAnswer)
	router.Register(event.IceCandidate, r.handleCandidate)
	return r
}

// lifecycle builds the handler for request/accepted/ended, which share one
// payload shape and forward under their inbound name.
func (r *CallRelay) lifecycle(name string) HandlerFunc {
	return func(ctx context.Context, origin Origin, data json.RawMessage) error {
		payload, err := decodePayload[event.CallLifecyclePayload](r.router, data)
		if err != nil {
			return err
		}
		r.router.Emit(ctx, domain.IdentityRoom(payload.TargetUserID),
			event.Outbound{Event: name, Data: event.CallEventPayload{
				FromUserID:     origin.User,
				ConversationID: payload.ConversationID,
			}})
		return nil
	}
}

func (r *CallRelay) handleOffer(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.VideoOfferPayload](r.router, data)
	if err != nil {
		return err
	}
	r.router.Emit(ctx, domain.IdentityRoom(payload.TargetUserID),
		event.Outbound{Event: event.VideoOffer, Data: event.VideoOfferEvent{
			Offer:      payload.Offer,
			FromUserID: origin.User,
		}})
	return nil
}

func (r *CallRelay) handleAnswer(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.VideoAnswerPayload](r.router, data)
	if err != nil {
		return err
	}
	r.router.Emit(ctx, domain.IdentityRoom(payload.TargetUserID),
		event.Outbound{Event: event.VideoAnswer, Data: event.VideoAnswerEvent{
			Answer:     payload.Answer,
			FromUserID: origin.User,
		}})
	return nil
}

func (r *CallRelay) handleCandidate(ctx context.Context, origin Origin, data json.RawMessage) error {
	payload, err := decodePayload[event.IceCandidatePayload](r.router, data)
	if err != nil {
		return err
	}
	r.router.Emit(ctx, domain.IdentityRoom(payload.TargetUserID),
		event.Outbound{Event: event.IceCandidate, Data: event.IceCandidateEvent{
			Candidate:  payload.Candidate,
			FromUserID: origin.User,
		}})
	return nil
}

package event

import (
	"encoding/json"

	"github.com/rakshit0960/PeerTalk/domain"
)

// ReadReceiptPayload lists the messages of one conversation that were just
// flipped to read, delivered to their original sender.
type ReadReceiptPayload struct {
	ConversationID domain.ConversationID `json:"conversationId"`
	MessageIDs     []int64               `json:"messageIds"`
}

// UserTypingPayload is broadcast to the other conversation room members.
type UserTypingPayload struct {
	UserID         domain.UserID         `json:"userId"`
	UserName       string                `json:"userName"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

// UserStopTypingPayload ends a typing indicator, explicitly or synthetically
// on disconnect.
type UserStopTypingPayload struct {
	UserID         domain.UserID         `json:"userId"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

// CallEventPayload is the outbound form of the call lifecycle events, with
// the relayed target rewritten into the authenticated origin.
type CallEventPayload struct {
	FromUserID     domain.UserID         `json:"fromUserId"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

// VideoOfferEvent forwards an SDP offer with its authenticated origin.
type VideoOfferEvent struct {
	Offer      json.RawMessage `json:"offer"`
	FromUserID domain.UserID   `json:"fromUserId"`
}

// VideoAnswerEvent forwards an SDP answer with its authenticated origin.
type VideoAnswerEvent struct {
	Answer     json.RawMessage `json:"answer"`
	FromUserID domain.UserID   `json:"fromUserId"`
}

// IceCandidateEvent forwards an ICE candidate with its authenticated origin.
type IceCandidateEvent struct {
	Candidate  json.RawMessage `json:"candidate"`
	FromUserID domain.UserID   `json:"fromUserId"`
}

// ErrorPayload reports a validation or collaborator failure to the sender
// only. The connection stays open.
type ErrorPayload struct {
	Details string `json:"details"`
}

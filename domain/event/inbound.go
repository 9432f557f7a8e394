package event

import (
	"encoding/json"

	"github.com/rakshit0960/PeerTalk/domain"
)

// UserRef is the embedded sender/receiver summary a persisted message may
// carry. It is relayed untouched.
type UserRef struct {
	ID   domain.UserID `json:"id" validate:"required"`
	Name string        `json:"name" validate:"required"`
}

// JoinConversationPayload subscribes the sending connection to a
// conversation room.
type JoinConversationPayload struct {
	ID domain.ConversationID `json:"id" validate:"required"`
}

// ParticipantPayload mirrors domain.Participant on the wire.
type ParticipantPayload struct {
	ID    domain.UserID `json:"id" validate:"required"`
	Name  string        `json:"name" validate:"required"`
	Email string        `json:"email" validate:"required,email"`
}

// ConversationStartedPayload relays a freshly created conversation record
// to its participants.
type ConversationStartedPayload struct {
	Conversation ConversationPayload `json:"conversation"`
}

// ConversationPayload is the conversation record relayed on
// conversation-started, already persisted by the HTTP path.
type ConversationPayload struct {
	ID           domain.ConversationID `json:"id" validate:"required"`
	Name         *string               `json:"name"`
	IsGroup      bool                  `json:"isGroup"`
	Participants []ParticipantPayload  `json:"participants" validate:"required,min=1,dive"`
}

// MessagePayload is the persisted message record relayed on new-message.
type MessagePayload struct {
	ID             int64                 `json:"id" validate:"required"`
	Content        string                `json:"content" validate:"required"`
	SenderID       domain.UserID         `json:"senderId" validate:"required"`
	ReceiverID     domain.UserID         `json:"receiverId" validate:"required"`
	ConversationID domain.ConversationID `json:"conversationId" validate:"required"`
	CreatedAt      string                `json:"createdAt,omitempty"`
	Sender         *UserRef              `json:"sender,omitempty"`
	Receiver       *UserRef              `json:"receiver,omitempty"`
}

// ConversationReadPayload marks every unread message addressed to the
// caller in one conversation as read.
type ConversationReadPayload struct {
	ConversationID domain.ConversationID `json:"conversationId" validate:"required"`
}

// TypingStartPayload announces the sender started typing in a conversation.
type TypingStartPayload struct {
	ConversationID domain.ConversationID `json:"conversationId" validate:"required"`
	UserID         domain.UserID         `json:"userId" validate:"required"`
	UserName       string                `json:"userName" validate:"required"`
}

// TypingStopPayload announces the sender stopped typing.
type TypingStopPayload struct {
	ConversationID domain.ConversationID `json:"conversationId" validate:"required"`
	UserID         domain.UserID         `json:"userId" validate:"required"`
}

// CallLifecyclePayload carries video-call-request, video-call-accepted and
// video-call-ended. Every signaling message names its own target; the
// server keeps no call session.
type CallLifecyclePayload struct {
	TargetUserID   domain.UserID         `json:"targetUserId" validate:"required"`
	ConversationID domain.ConversationID `json:"conversationId" validate:"required"`
}

// VideoOfferPayload carries an opaque SDP offer to a target identity.
type VideoOfferPayload struct {
	Offer        json.RawMessage `json:"offer" validate:"required"`
	TargetUserID domain.UserID   `json:"targetUserId" validate:"required"`
}

// VideoAnswerPayload carries an opaque SDP answer to a target identity.
type VideoAnswerPayload struct {
	Answer       json.RawMessage `json:"answer" validate:"required"`
	TargetUserID domain.UserID   `json:"targetUserId" validate:"required"`
}

// IceCandidatePayload carries an opaque ICE candidate to a target identity.
type IceCandidatePayload struct {
	Candidate    json.RawMessage `json:"candidate" validate:"required"`
	TargetUserID domain.UserID   `json:"targetUserId" validate:"required"`
}

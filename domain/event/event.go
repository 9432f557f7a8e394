// Package event defines the closed set of real-time events exchanged with
// clients. Payloads are decoded and validated once, at the router boundary;
// nothing downstream touches raw JSON.
package event

import "encoding/json"

// Inbound event names (client -> server).
const (
	JoinConversation    = "join-conversation"
	ConversationStarted = "conversation-started"
	NewMessage          = "new-message"
	ConversationRead    = "conversation-read"
	TypingStart         = "typing-start"
	TypingStop          = "typing-stop"
	VideoCallRequest    = "video-call-request"
	VideoCallAccepted   = "video-call-accepted"
	VideoCallEnded      = "video-call-ended"
	VideoOffer          = "video-offer"
	VideoAnswer         = "video-answer"
	IceCandidate        = "ice-candidate"
)

// Outbound event names (server -> client). Call signaling events keep their
// inbound name on the way out.
const (
	GetNewMessage       = "get-new-message"
	ConversationCreated = "conversation-created"
	MessagesReadReceipt = "messages-read-receipt"
	UserTyping          = "user-typing"
	UserStopTyping      = "user-stop-typing"
	Error               = "error"
)

// Envelope is the wire frame: a named event with a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is a server-side event ready for fan-out. Data is marshaled by
// the transport when the frame is written.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

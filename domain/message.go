package domain

import "time"

// Participant is a member of a conversation record.
type Participant struct {
	ID    UserID
	Name  string
	Email string
}

// Conversation is the persisted conversation record as seen by the core.
// The core only relays it; creation happens on the HTTP path.
type Conversation struct {
	ID           ConversationID
	Name         *string
	IsGroup      bool
	Participants []Participant
}

// Message is an already-persisted chat message. The core never creates
// messages, it relays them and flips their read flag.
type Message struct {
	ID             int64
	ConversationID ConversationID
	SenderID       UserID
	ReceiverID     UserID
	Content        string
	CreatedAt      time.Time
	Read           bool
}

// ReadMessage reports one message flipped to read, together with its
// original sender so the read receipt can be routed back.
type ReadMessage struct {
	ID       int64
	SenderID UserID
}

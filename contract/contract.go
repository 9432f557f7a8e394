//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/domain/event"
)

// Sink is the outward-send capability of one connection. Consume must not
// block on the peer: a slow consumer fails fast and only for itself.
type Sink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageStore is the persistence collaborator consumed by the read-receipt
// path. MarkRead flips every message of the conversation that is addressed
// to recipient and still unread at update time, in a single conditional
// update, and reports what it flipped.
type MessageStore interface {
	MarkRead(ctx context.Context, conversation domain.ConversationID, recipient domain.UserID) ([]domain.ReadMessage, error)
}

// IRegistry is the membership surface the dispatch layer depends on. The
// raw maps are never exposed.
type IRegistry interface {
	Admit(conn domain.ConnID, user domain.UserID, sink Sink)
	Join(conn domain.ConnID, room domain.RoomID)
	Remove(conn domain.ConnID) (domain.UserID, []domain.ConversationID, bool)
	SetTyping(conn domain.ConnID, conversation domain.ConversationID, typing bool)
	SinksFor(room domain.RoomID) []Sink
	SinksForExcept(room domain.RoomID, except domain.ConnID) []Sink
}

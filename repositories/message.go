package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/rakshit0960/PeerTalk/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	Messages(conversation domain.ConversationID) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversation domain.ConversationID, recipient domain.UserID) ([]domain.ReadMessage, error)
}

// MessageRepository persists messages in BadgerDB. The real-time core only
// calls MarkRead; storing happens on the HTTP send path before the
// new-message event is ever emitted.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored JSON shape. The read flag lives here and
// nowhere else in the core.
type diskMessage struct {
	ID             int64                 `json:"id"`
	ConversationID domain.ConversationID `json:"conversationId"`
	SenderID       domain.UserID         `json:"senderId"`
	ReceiverID     domain.UserID         `json:"receiverId"`
	Content        string                `json:"content"`
	CreatedAt      time.Time             `json:"createdAt"`
	Read           bool                  `json:"read"`
}

// messageKey formats "msg:{conversation}:{timestamp_padded}:{id}".
// The 19-digit zero padding keeps lexicographical order chronological; the
// message id disambiguates two messages landing on the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%d:%019d:%d", m.ConversationID, m.CreatedAt.UnixNano(), m.ID))
}

func conversationPrefix(conversation domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("msg:%d:", conversation))
}

func (r MessageRepository) StoreMessage(message domain.Message) error {
	value, err := json.Marshal(fromDomain(message))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), value)
	})
}

// Messages returns a conversation's messages in chronological order.
func (r MessageRepository) Messages(conversation domain.ConversationID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(conversation)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var disk diskMessage
				if err := json.Unmarshal(value, &disk); err != nil {
					return err
				}
				messages = append(messages, toDomain(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// MarkRead flips every message of the conversation addressed to recipient
// that is still unread at update time. Scan and rewrite happen inside one
// transaction, so a message committed after this snapshot keeps its unread
// flag; there is no separate select-then-update window.
func (r MessageRepository) MarkRead(ctx context.Context, conversation domain.ConversationID, recipient domain.UserID) ([]domain.ReadMessage, error) {
	var read []domain.ReadMessage
	err := r.db.Update(func(txn *badger.Txn) error {
		read = read[:0]
		prefix := conversationPrefix(conversation)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()

			var disk diskMessage
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &disk)
			})
			if err != nil {
				return err
			}
			if disk.ReceiverID != recipient || disk.Read {
				continue
			}

			disk.Read = true
			value, err := json.Marshal(disk)
			if err != nil {
				return err
			}
			if err := txn.Set(item.KeyCopy(nil), value); err != nil {
				return err
			}
			read = append(read, domain.ReadMessage{ID: disk.ID, SenderID: disk.SenderID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(read) > 0 {
		r.log.Debug("messages marked read",
			"conversation", conversation,
			"recipient", recipient,
			"count", len(read))
	}
	return read, nil
}

func fromDomain(m domain.Message) diskMessage {
	return diskMessage{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.UTC(),
		Read:           m.Read,
	}
}

func toDomain(d diskMessage) domain.Message {
	return domain.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		ReceiverID:     d.ReceiverID,
		Content:        d.Content,
		CreatedAt:      d.CreatedAt,
		Read:           d.Read,
	}
}

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	ListMessages() ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type storedMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Content   string `json:"message"`
	Timestamp string `json:"timestamp"`
	StoredAt  int64  `json:"stored_at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// The client-supplied Timestamp field is stored verbatim and never used for ordering.
func (m *MessageRepository) StoreMessage(message domain.Message) error {
	storedAt := time.Now().UTC()
	key := fmt.Sprintf("msg:%019d:%s", storedAt.UnixNano(), message.ID)

	data, err := json.Marshal(storedMessage{
		ID:        message.ID.String(),
		Sender:    message.Sender,
		Receiver:  message.Receiver,
		Content:   message.Content,
		Timestamp: message.Timestamp,
		StoredAt:  storedAt.UnixNano(),
	})
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// ListMessages retrieves every persisted message using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back oldest first.
func (m *MessageRepository) ListMessages() ([]domain.Message, error) {
	var stored []storedMessage

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var s storedMessage
				if err := json.Unmarshal(val, &s); err != nil {
					return err
				}
				stored = append(stored, s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(stored))
	for _, s := range stored {
		parsedID, err := uuid.Parse(s.ID)
		if err != nil {
			m.log.Warn("Skipping message with malformed id", "id", s.ID)
			continue
		}
		messages = append(messages, domain.Message{
			ID:        parsedID,
			Sender:    s.Sender,
			Receiver:  s.Receiver,
			Content:   s.Content,
			Timestamp: s.Timestamp,
		})
	}
	return messages, nil
}

package repositories

import (
	"chat-relay/domain"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Store_And_List(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	message := domain.Message{
		ID:        uuid.New(),
		Sender:    "alice",
		Receiver:  "bob",
		Content:   "hi",
		Timestamp: "2026-08-31T10:00:00Z",
	}

	// When a message is persisted
	req.NoError(repository.StoreMessage(message))

	// Then it comes back field for field, client timestamp included
	messages, err := repository.ListMessages()
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(message, messages[0])
}

func TestMessageRepository_List_Is_Chronological(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	// Given three messages stored in sequence
	expected := []string{"first", "second", "third"}
	for _, content := range expected {
		req.NoError(repository.StoreMessage(domain.Message{
			ID:      uuid.New(),
			Sender:  "alice",
			Content: content,
		}))
	}

	// Then listing preserves storage order, oldest first
	messages, err := repository.ListMessages()
	req.NoError(err)
	req.Len(messages, len(expected))
	for i, content := range expected {
		req.Equal(content, messages[i].Content)
	}
}

func TestMessageRepository_List_Empty(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	messages, err := repository.ListMessages()
	req.NoError(err)
	req.Empty(messages)
}

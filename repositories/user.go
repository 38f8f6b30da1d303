//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (string, error)
	GetUserByUsername(username string) (domain.User, error)
	ListUsers() ([]domain.User, error)
	SetOnline(username string, online bool) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// storedUser is the on-disk representation. Usernames are unique by key,
// so the key is the username, not the id.
type storedUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Online       bool   `json:"online"`
	CreatedAt    int64  `json:"created_at"`
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// CreateUser persists a new user, offline by default.
// It returns the newly generated user ID.
func (u *UserRepository) CreateUser(username, hashedPassword string) (string, error) {
	newID := uuid.NewString()
	data, err := json.Marshal(storedUser{
		ID:           newID,
		Username:     username,
		PasswordHash: hashedPassword,
		Online:       false,
		CreatedAt:    time.Now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})

	return newID, err
}

// GetUserByUsername retrieves a user and converts it to the domain struct.
func (u *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var stored storedUser

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(stored), nil
}

// ListUsers scans every user record. The result order follows the key order,
// so it is alphabetical by username.
func (u *UserRepository) ListUsers() ([]domain.User, error) {
	var users []storedUser

	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var stored storedUser
				if err := json.Unmarshal(val, &stored); err != nil {
					return err
				}
				users = append(users, stored)
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

	return lo.Map(users, func(item storedUser, _ int) domain.User {
		return toUser(item)
	}), nil
}

// SetOnline is the presence write: an unconditional set of the online flag.
// There is no reference counting, the last writer for a username wins.
func (u *UserRepository) SetOnline(username string, online bool) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var stored storedUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}

		stored.Online = online
		data, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), data)
	})
}

func toUser(stored storedUser) domain.User {
	return domain.User{
		ID:           stored.ID,
		Username:     stored.Username,
		PasswordHash: stored.PasswordHash,
		Online:       stored.Online,
		CreatedAt:    time.Unix(stored.CreatedAt, 0).UTC(),
	}
}

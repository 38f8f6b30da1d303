package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		username := "alice42"
		password := "ComplexPass123!" // Must satisfy the complexity rules
		expectedUserID := "user-uuid"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(username, gomock.Any()).
			Return(expectedUserID, nil).
			Times(1)

		token, err := svc.Register(username, password)

		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register("alice42", "simple")

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("duplicate1", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register("duplicate1", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo, 24*time.Hour)

	password := "ComplexPass123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	t.Run("should login with the right password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetUserByUsername("alice42").
			Return(domain.User{ID: "user-uuid", Username: "alice42", PasswordHash: hash}, nil).
			Times(1)

		token, err := svc.Login("alice42", password)

		req.NoError(err)
		req.NotEmpty(token)

		claims, err := auth.ValidateToken(string(token))
		req.NoError(err)
		req.Equal("alice42", claims.Username)
	})

	t.Run("should fail with the wrong password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetUserByUsername("alice42").
			Return(domain.User{ID: "user-uuid", Username: "alice42", PasswordHash: hash}, nil).
			Times(1)

		_, err := svc.Login("alice42", "WrongPass123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should fail for an unknown user without leaking why", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetUserByUsername("ghost").
			Return(domain.User{}, errors.ErrUserNotFound).
			Times(1)

		_, err := svc.Login("ghost", password)

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

package e2e

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type ChatScenarioSuite struct {
	BaseRelaySuite
}

func TestChatScenario(t *testing.T) {
	suite.Run(t, new(ChatScenarioSuite))
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userEntry struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// uniqueName avoids collisions when the suite runs twice against the
// same relay instance.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1_000_000)
}

func (s *ChatScenarioSuite) TestRegisterThenLogin() {
	s.Header("Register / Login")
	username := uniqueName("alice")
	password := "ComplexPass123!"

	var registered tokenResponse
	status := s.Post("/register", map[string]string{
		"username": username,
		"password": password,
	}, &registered)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().NotEmpty(registered.Token)

	// Registering the same username again must conflict
	status = s.Post("/register", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	s.Require().Equal(http.StatusConflict, status)

	var logged tokenResponse
	status = s.Post("/login", map[string]string{
		"username": username,
		"password": password,
	}, &logged)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NotEmpty(logged.Token)

	status = s.Post("/login", map[string]string{
		"username": username,
		"password": "WrongPass123!",
	}, nil)
	s.Require().Equal(http.StatusUnauthorized, status)
}

func (s *ChatScenarioSuite) TestPresenceAndMessages() {
	aliceName := uniqueName("alice")
	bobName := uniqueName("bob")
	password := "ComplexPass123!"

	for _, username := range []string{aliceName, bobName} {
		status := s.Post("/register", map[string]string{
			"username": username,
			"password": password,
		}, nil)
		s.Require().Equal(http.StatusCreated, status)
	}

	// 1. Both users connect and claim their usernames.
	alice := s.Dial(s.T(), "alice connects")
	s.Send(alice, domain.JoinCommand{Username: aliceName})
	s.Require().Equal(event.UserOnline{Username: aliceName}, s.Receive(alice))

	bob := s.Dial(s.T(), "bob connects")
	s.Send(bob, domain.JoinCommand{Username: bobName})
	s.Require().Equal(event.UserOnline{Username: bobName}, s.Receive(alice))
	s.Require().Equal(event.UserOnline{Username: bobName}, s.Receive(bob))

	// 2. The roster reflects both users online.
	var roster []userEntry
	status := s.Get("/users", &roster)
	s.Require().Equal(http.StatusOK, status)
	online := make(map[string]bool)
	for _, entry := range roster {
		online[entry.Username] = entry.Online
	}
	s.Require().True(online[aliceName])
	s.Require().True(online[bobName])

	// 3. A message from alice reaches everyone, sender included.
	sent := domain.Message{
		Sender:    aliceName,
		Receiver:  bobName,
		Content:   "hello bob",
		Timestamp: time.Now().Format(time.TimeOnly),
	}
	s.Send(alice, domain.PostMessageCommand{Message: sent})

	for _, conn := range []*websocket.Conn{alice, bob} {
		received, ok := s.Receive(conn).(event.MessageReceived)
		s.Require().True(ok, "expected a message event")
		s.Require().Equal(sent.Content, received.Message.Content)
		s.Require().Equal(sent.Sender, received.Message.Sender)
	}

	// 4. alice disconnects, bob is told she went offline.
	s.Require().NoError(alice.Close())
	s.Require().Equal(event.UserOffline{Username: aliceName}, s.Receive(bob))
}

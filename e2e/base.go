package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/gateway"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const receiveTimeout = 5 * time.Second

type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
// Without RELAY_ADDR the whole suite is skipped, keeping `go test ./...`
// usable on machines with no relay running.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.RelayAddr == "" {
		s.T().Skip("RELAY_ADDR not set, skipping end-to-end suite")
	}
}

// Header prints a colorized section header in the test logs.
func (s *BaseRelaySuite) Header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dial opens one websocket connection to the relay.
func (s *BaseRelaySuite) Dial(t *testing.T, name string) *websocket.Conn {
	s.Header(name)

	wsURL := url.URL{Scheme: "ws", Host: s.Config.RelayAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	s.Require().NoError(err, "could not reach relay at %s", s.Config.RelayAddr)

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send encodes and writes one command frame.
func (s *BaseRelaySuite) Send(conn *websocket.Conn, cmd domain.Command) {
	raw, err := gateway.EncodeCommand(cmd)
	s.Require().NoError(err)
	s.debug(">>", raw)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, raw))
}

// Receive blocks for the next event frame from the relay.
func (s *BaseRelaySuite) Receive(conn *websocket.Conn) event.Event {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(receiveTimeout)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)
	s.debug("<<", raw)

	e, err := gateway.DecodeEvent(raw)
	s.Require().NoError(err)
	return e
}

// Post sends a JSON body to the relay's HTTP API and decodes the reply.
func (s *BaseRelaySuite) Post(path string, body any, out any) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	s.debug(">>", payload)

	resp, err := http.Post(
		fmt.Sprintf("http://%s%s", s.Config.RelayAddr, path),
		"application/json",
		bytes.NewReader(payload),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Get fetches a JSON document from the relay's HTTP API.
func (s *BaseRelaySuite) Get(path string, out any) int {
	resp, err := http.Get(fmt.Sprintf("http://%s%s", s.Config.RelayAddr, path))
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *BaseRelaySuite) debug(direction string, raw []byte) {
	if !s.Config.DebugJSON {
		return
	}
	line := fmt.Sprintf("%s %s", direction, raw)
	if s.Config.Colours {
		line = color.Gray.Render(line)
	}
	s.T().Log(line)
}

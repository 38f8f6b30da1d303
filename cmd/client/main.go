package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/gateway"
	"chat-relay/projection"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"RELAY_SERVER_ADDR,default=localhost:8000"`
	Username      string `env:"RELAY_USERNAME,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle, configuration loading,
// and the send/receive loops.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish the websocket connection to the relay.
	wsURL := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", config.ServerAddress, err)
	}
	// Defer ensures the connection is closed even if a loop fails later.
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	// 4. Claim the username before anything else.
	join, err := gateway.EncodeCommand(domain.JoinCommand{Username: config.Username})
	if err != nil {
		return exitRuntime, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return exitRuntime, fmt.Errorf("failed to join: %w", err)
	}

	log.Info(fmt.Sprintf(">>> Connected to %s as %s (Ctrl+C to quit)...",
		config.ServerAddress, config.Username))

	// 5. Forward stdin lines as messages.
	go sendLoop(conn, config.Username)

	// 6. Event reception loop, feeding the local timeline.
	// This loop runs until the context is canceled or the server closes
	// the connection.
	timeline := projection.NewTimeline()
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			frames <- raw
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return exitOK, nil
		case err := <-readErr:
			// Normal exit if the user triggered a shutdown.
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		case raw := <-frames:
			e, err := gateway.DecodeEvent(raw)
			if err != nil {
				log.Warn("Skipping frame", "error", err)
				continue
			}
			timeline.Consume(e)
			render(log, timeline, e)
		}
	}
}

// render displays one event the way a terminal chat would.
func render(log *slog.Logger, timeline *projection.Timeline, e event.Event) {
	switch evt := e.(type) {
	case event.MessageReceived:
		log.Info(fmt.Sprintf("[%s] %s: %s",
			evt.Message.Timestamp, evt.Message.Sender, evt.Message.Content))
	case event.UserOnline:
		log.Info(fmt.Sprintf("*** %s is online (%s)",
			evt.Username, strings.Join(timeline.Online(), ", ")))
	case event.UserOffline:
		log.Info(fmt.Sprintf("*** %s went offline (%s)",
			evt.Username, strings.Join(timeline.Online(), ", ")))
	}
}

// sendLoop turns every stdin line into a broadcast message.
func sendLoop(conn *websocket.Conn, username string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		content := strings.TrimSpace(scanner.Text())
		if content == "" {
			continue
		}

		raw, err := gateway.EncodeCommand(domain.PostMessageCommand{
			Message: domain.Message{
				Sender:    username,
				Content:   content,
				Timestamp: time.Now().Format(time.TimeOnly),
			},
		})
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
	"chat-relay/sink"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires the HTTP API and the websocket endpoint to the relay core.
type Server struct {
	log           *slog.Logger
	registry      contract.IRegistry
	presence      contract.IPresence
	relay         contract.IRelay
	authService   services.IAuthService
	users         repositories.IUserRepository
	messages      repositories.IMessageRepository
	sinkBufferLen int
}

func NewServer(log *slog.Logger, registry contract.IRegistry, presence contract.IPresence,
	relay contract.IRelay, authService services.IAuthService,
	users repositories.IUserRepository, messages repositories.IMessageRepository,
	sinkBufferLen int) *Server {
	return &Server{
		log:           log,
		registry:      registry,
		presence:      presence,
		relay:         relay,
		authService:   authService,
		users:         users,
		messages:      messages,
		sinkBufferLen: sinkBufferLen,
	}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/login", s.handleLogin)
	r.POST("/register", s.handleRegister)
	r.GET("/users", s.handleListUsers)
	r.GET("/messages", s.handleListMessages)
	r.GET("/ws", s.handleWS)

	return r
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := s.authService.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": string(token)})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := s.authService.Register(req.Username, req.Password)
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": string(token)})
}

type userResponse struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// handleListUsers exposes the roster with its presence flags.
// Password hashes never leave the repository layer.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.users.ListUsers()
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": "listing users failed"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(users, func(item domain.User, _ int) userResponse {
		return userResponse{Username: item.Username, Online: item.Online}
	}))
}

func (s *Server) handleListMessages(c *gin.Context) {
	messages, err := s.messages.ListMessages()
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": "listing messages failed"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// handleWS upgrades the connection and runs its lifecycle: register the
// session unclaimed, start the lifecycle handler and the write pump, then
// block in the read pump until the peer disconnects.
func (s *Server) handleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	id := domain.NewConnID()
	wsSink := sink.NewWsSink(s.log, s.sinkBufferLen)
	client := newClient(s.log, id, ws, wsSink, s.sinkBufferLen)

	s.registry.Open(id, wsSink)
	s.log.Debug("Connection opened", "conn_id", id)

	handler := runtime.NewConnection(s.log, id, client.inbound,
		s.registry, s.presence, s.relay, s.messages)

	go client.writePump()
	go func() {
		if err := handler.Run(c.Request.Context()); err != nil {
			s.log.Error("Connection handler failed", "conn_id", id, "error", err)
		}
		s.log.Debug("Connection closed", "conn_id", id)
	}()

	client.readPump()
}

package websocket

import (
	"care-chat-backend/internal/env"
	internaljwt "care-chat-backend/internal/jwt"
	"fmt"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	upgrader    websocket.Upgrader
	redisClient *redis.Client
)

func init() {
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.ChatRedisURL),
		Password: env.Get(env.ChatRedisPass),
		DB:       0,
	})
}

// Identity is what a verified handshake token resolves to. Immutable for the
// connection's lifetime.
type Identity struct {
	UserID string
	Role   string
}

type Handler struct {
	hub *Hub
}

func NewHandler(h *Hub) *Handler {
	h.Publish = Publish
	return &Handler{
		hub: h,
	}
}

// Authenticate verifies the opaque token presented during the handshake.
// Either side of a care room may connect, so both role secrets are tried.
func Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("handshake token missing")
	}

	claims, role, err := internaljwt.ParseAnyToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("handshake token rejected: %w", err)
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		return Identity{}, fmt.Errorf("handshake token missing user id")
	}

	return Identity{
		UserID: userID,
		Role:   internaljwt.RoleNames[role],
	}, nil
}

// Connect upgrades the request and registers the connection for the already
// verified identity. Rejected handshakes never reach this point.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request, identity Identity) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cl := &Client{
		Conn:     conn,
		Message:  make(chan *ServerEvent, 16),
		ID:       uuid.NewString(),
		UserID:   identity.UserID,
		Role:     identity.Role,
		done:     make(chan struct{}),
		isClosed: false,
	}

	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub)

	log.Printf("User %s connected (connection %s, role %s)", cl.UserID, cl.ID, cl.Role)
}

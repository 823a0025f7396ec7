package realtime

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	userRepo "lintas.id/aidesk/internal/modules/user/repository"
)

// Handler serves the websocket push channel. Each connection subscribes to
// the caller's own event channel; admin users additionally receive the
// shared admin channel.
type Handler struct {
	redisClient *redis.Client
	userRepo    userRepo.UserRepository
	upgrader    websocket.Upgrader
}

func NewHandler(redisClient *redis.Client, userRepo userRepo.UserRepository) *Handler {
	return &Handler{
		redisClient: redisClient,
		userRepo:    userRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime channel unavailable"})
		return
	}

	channels := []string{userChannel(userID)}
	if user, err := h.userRepo.FindByID(c.Request.Context(), userIDStr); err == nil && user.IsAdmin() {
		channels = append(channels, adminChannel)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	pubsub := h.redisClient.Subscribe(c.Request.Context(), channels...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("failed to subscribe to redis channels: %v", err)
		return
	}

	ch := pubsub.Channel()

	// Drain reads so client close is noticed
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payload is already the JSON-encoded Event; forward verbatim
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EventTicketCreated = "ticket.created"
	EventTicketReply   = "ticket.reply"
	EventTicketStatus  = "ticket.status"
	EventTicketDeleted = "ticket.deleted"
)

const adminChannel = "support_events:admins"

// Event is the payload pushed to subscribed clients when a ticket changes.
type Event struct {
	Type     string    `json:"type"`
	TicketID uuid.UUID `json:"ticket_id"`
	// OwnerID is the ticket owner; it selects the user channel the event
	// is fanned out to.
	OwnerID       uuid.UUID `json:"owner_id"`
	Status        string    `json:"status,omitempty"`
	IsReadByUser  *bool     `json:"is_read_by_user,omitempty"`
	IsReadByAdmin *bool     `json:"is_read_by_admin,omitempty"`
	Sender        string    `json:"sender,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Publisher fans ticket events out to interested subscribers. Services
// depend on this interface, not on Redis directly.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type redisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher returns a Publisher backed by Redis pub/sub. Events go
// to the owner's channel and to the shared admin channel. With a nil client
// publishing is a no-op.
func NewRedisPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client}
}

func userChannel(userID uuid.UUID) string {
	return fmt.Sprintf("support_events:%s", userID.String())
}

func (p *redisPublisher) Publish(ctx context.Context, event Event) {
	if p.client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal realtime event: %v", err)
		return
	}

	if err := p.client.Publish(ctx, userChannel(event.OwnerID), payload).Err(); err != nil {
		log.Printf("failed to publish realtime event to user channel: %v", err)
	}
	if err := p.client.Publish(ctx, adminChannel, payload).Err(); err != nil {
		log.Printf("failed to publish realtime event to admin channel: %v", err)
	}
}

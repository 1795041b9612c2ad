package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAnswered EventType = "ticket_answered"
	EventOrderCreated   EventType = "order_created"
	EventOrderCompleted EventType = "order_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New builds an event with a generated id and current timestamp.
func New(eventType EventType, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketAnsweredPayload payload.
type TicketAnsweredPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Reply  string        `json:"reply"`
}

// OrderCreatedPayload payload. Item carries the freshly fetched item the
// order snapshot was taken from.
type OrderCreatedPayload struct {
	Order domain.Order `json:"order"`
	Item  domain.Item  `json:"item"`
}

// OrderCompletedPayload payload.
type OrderCompletedPayload struct {
	Order domain.Order `json:"order"`
	Reply string       `json:"reply"`
}

package domain

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusAnswered TicketStatus = "answered"
)

// Ticket is a support request raised by a chat user. Status moves
// open -> answered exactly once; there is no regression path.
type Ticket struct {
	ID            int64
	RequesterChat int64
	RequesterName string
	Question      string
	Status        TicketStatus
	Answer        *string
}

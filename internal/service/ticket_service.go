package service

import (
	"context"

	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/repository"
	"github.com/spec-kit/storefront-bot/internal/wizard"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// TicketService coordinates support ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{tickets: tickets, dispatcher: dispatcher}
}

// Create persists a ticket from a completed support draft and announces
// it to the admin set.
func (s *TicketService) Create(ctx context.Context, requesterChat int64, draft wizard.SupportDraft) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		RequesterChat: requesterChat,
		RequesterName: draft.FIO,
		Question:      draft.Question,
		Status:        domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventTicketCreated, events.TicketCreatedPayload{Ticket: *ticket}))
	return ticket, nil
}

// ListOpen lists tickets awaiting an answer.
func (s *TicketService) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.ListByStatus(ctx, domain.TicketStatusOpen)
}

// Get returns one ticket.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Resolve stores the admin reply, transitions the ticket to answered,
// and notifies the original requester. The transition happens at most
// once: a second resolution returns ALREADY_RESOLVED and sends nothing.
func (s *TicketService) Resolve(ctx context.Context, id int64, reply string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return apperrors.NewAlreadyResolved("ticket")
	}

	if err := s.tickets.SetAnswer(ctx, id, reply); err != nil {
		return err
	}
	if err := s.tickets.SetStatus(ctx, id, domain.TicketStatusAnswered); err != nil {
		return err
	}

	ticket.Status = domain.TicketStatusAnswered
	ticket.Answer = &reply
	_ = s.dispatcher.Publish(ctx, events.New(events.EventTicketAnswered, events.TicketAnsweredPayload{Ticket: *ticket, Reply: reply}))
	return nil
}

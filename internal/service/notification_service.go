package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-bot/internal/config"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/observability"
)

// Action is an inline button attached to an outbound message.
type Action struct {
	Label string
	Data  string
}

// Sender delivers outbound messages to a chat. Implemented by the
// Telegram client; kept narrow so tests can record deliveries.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, actions ...Action) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, actions ...Action) error
}

// NotificationService fans domain events out to the admin set or the
// original requester. Delivery is best-effort: failures are logged and
// never retried, and never roll back the store mutation behind the event.
type NotificationService struct {
	sender  Sender
	cfg     config.BotConfig
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(sender Sender, cfg config.BotConfig, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{sender: sender, cfg: cfg, logger: logger, metrics: metrics}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketAnswered, n.handleTicketAnswered)
	dispatcher.Subscribe(events.EventOrderCreated, n.handleOrderCreated)
	dispatcher.Subscribe(events.EventOrderCompleted, n.handleOrderCompleted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	text := fmt.Sprintf("Новый тикет #%d от %s", payload.Ticket.ID, payload.Ticket.RequesterName)
	n.broadcastToAdmins(ctx, text)
	return nil
}

func (n *NotificationService) handleTicketAnswered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAnsweredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	text := fmt.Sprintf("Ответ на ваш тикет #%d:\n%s", payload.Ticket.ID, payload.Reply)
	n.send(ctx, payload.Ticket.RequesterChat, text)
	return nil
}

func (n *NotificationService) handleOrderCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	caption := fmt.Sprintf(
		"Оплата работы \"%s\" по QR-коду\nЦена: %d₽\nНомер заказа: %d",
		payload.Item.Name, payload.Order.Price, payload.Order.ID,
	)
	if err := n.sender.SendPhoto(ctx, payload.Order.RequesterChat, n.cfg.PaymentQRURL, caption,
		Action{Label: "Оплачено", Data: "paid"},
	); err != nil {
		n.metrics.RecordNotification(false)
		n.logger.Warn("order confirmation delivery failed",
			zap.Int64("chat_id", payload.Order.RequesterChat), zap.Error(err))
	} else {
		n.metrics.RecordNotification(true)
	}

	text := fmt.Sprintf(
		"Новый заказ #%d!\nID товара: %d\nНазвание: %s\nЦена: %d₽\nКлиент: %s",
		payload.Order.ID, payload.Order.ItemID, payload.Item.Name, payload.Order.Price, payload.Order.RequesterName,
	)
	n.broadcastToAdmins(ctx, text)
	return nil
}

func (n *NotificationService) handleOrderCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OrderCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	text := fmt.Sprintf("Ответ по вашему заказу #%d:\n%s", payload.Order.ID, payload.Reply)
	n.send(ctx, payload.Order.RequesterChat, text)
	return nil
}

func (n *NotificationService) broadcastToAdmins(ctx context.Context, text string) {
	for _, adminID := range n.cfg.AdminIDs {
		n.send(ctx, adminID, text)
	}
}

func (n *NotificationService) send(ctx context.Context, chatID int64, text string) {
	if err := n.sender.SendMessage(ctx, chatID, text); err != nil {
		n.metrics.RecordNotification(false)
		n.logger.Warn("notification delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	n.metrics.RecordNotification(true)
}

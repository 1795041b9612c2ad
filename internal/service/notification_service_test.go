package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-bot/internal/config"
	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/observability"
)

type sentMessage struct {
	chatID  int64
	text    string
	photo   string
	actions []Action
}

// recordingSender captures outbound messages; failChats simulates
// blocked users.
type recordingSender struct {
	sent      []sentMessage
	failChats map[int64]bool
}

func (s *recordingSender) SendMessage(ctx context.Context, chatID int64, text string, actions ...Action) error {
	if s.failChats[chatID] {
		return errors.New("forbidden: bot was blocked by the user")
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text, actions: actions})
	return nil
}

func (s *recordingSender) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, actions ...Action) error {
	if s.failChats[chatID] {
		return errors.New("forbidden: bot was blocked by the user")
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: caption, photo: photoURL, actions: actions})
	return nil
}

func newNotificationFixture(failChats map[int64]bool) (*recordingSender, events.Dispatcher) {
	sender := &recordingSender{failChats: failChats}
	cfg := config.BotConfig{
		AdminIDs:     []int64{10, 20},
		PaymentQRURL: "https://example.com/qr.png",
	}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := NewNotificationService(sender, cfg, zap.NewNop(), observability.NewMetrics())
	svc.RegisterHandlers(dispatcher)
	return sender, dispatcher
}

func TestOrderCreatedFanout(t *testing.T) {
	sender, dispatcher := newNotificationFixture(nil)

	order := domain.Order{ID: 7, RequesterChat: 100, RequesterName: "Ivan Petrov", ItemID: 12, Price: 1500}
	item := domain.Item{ID: 12, Name: "Контрольная", Price: 1500}
	err := dispatcher.Publish(context.Background(), events.New(events.EventOrderCreated, events.OrderCreatedPayload{Order: order, Item: item}))
	require.NoError(t, err)

	// One QR photo to the requester plus one text per admin.
	require.Len(t, sender.sent, 3)

	qr := sender.sent[0]
	require.Equal(t, int64(100), qr.chatID)
	require.Equal(t, "https://example.com/qr.png", qr.photo)
	require.Contains(t, qr.text, "Номер заказа: 7")
	require.Contains(t, qr.text, "Контрольная")
	require.Len(t, qr.actions, 1)
	require.Equal(t, "paid", qr.actions[0].Data)

	for _, msg := range sender.sent[1:] {
		require.Contains(t, []int64{10, 20}, msg.chatID)
		require.Contains(t, msg.text, "Новый заказ #7")
		require.Contains(t, msg.text, "Ivan Petrov")
		require.Contains(t, msg.text, "1500")
	}
}

func TestTicketCreatedNotifiesAdmins(t *testing.T) {
	sender, dispatcher := newNotificationFixture(nil)

	ticket := domain.Ticket{ID: 5, RequesterChat: 100, RequesterName: "Ivan Petrov", Question: "?"}
	err := dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, events.TicketCreatedPayload{Ticket: ticket}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 2)
	for _, msg := range sender.sent {
		require.Contains(t, msg.text, "Ivan Petrov")
	}
}

func TestTicketAnsweredNotifiesRequester(t *testing.T) {
	sender, dispatcher := newNotificationFixture(nil)

	ticket := domain.Ticket{ID: 5, RequesterChat: 100, RequesterName: "Ivan"}
	err := dispatcher.Publish(context.Background(), events.New(events.EventTicketAnswered, events.TicketAnsweredPayload{
		Ticket: ticket, Reply: "Resolved, see attached",
	}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(100), sender.sent[0].chatID)
	require.Equal(t, fmt.Sprintf("Ответ на ваш тикет #%d:\n%s", 5, "Resolved, see attached"), sender.sent[0].text)
}

func TestOrderCompletedNotifiesRequester(t *testing.T) {
	sender, dispatcher := newNotificationFixture(nil)

	order := domain.Order{ID: 7, RequesterChat: 100}
	err := dispatcher.Publish(context.Background(), events.New(events.EventOrderCompleted, events.OrderCompletedPayload{
		Order: order, Reply: "Готово",
	}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	require.Contains(t, sender.sent[0].text, "заказу #7")
	require.Contains(t, sender.sent[0].text, "Готово")
}

func TestDeliveryFailureDoesNotStopFanout(t *testing.T) {
	sender, dispatcher := newNotificationFixture(map[int64]bool{10: true})

	ticket := domain.Ticket{ID: 5, RequesterChat: 100, RequesterName: "Ivan"}
	err := dispatcher.Publish(context.Background(), events.New(events.EventTicketCreated, events.TicketCreatedPayload{Ticket: ticket}))
	require.NoError(t, err)

	// Admin 10 is blocked; admin 20 still gets the message.
	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(20), sender.sent[0].chatID)
}

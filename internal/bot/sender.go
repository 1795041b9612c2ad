package bot

import (
	"context"

	"github.com/spec-kit/storefront-bot/internal/service"
	"github.com/spec-kit/storefront-bot/internal/telegram"
)

// clientSender adapts the Telegram client to the service.Sender port,
// mapping generic actions onto inline keyboards.
type clientSender struct {
	client *telegram.Client
}

// NewSender wraps a Telegram client as a service.Sender.
func NewSender(client *telegram.Client) service.Sender {
	return &clientSender{client: client}
}

func (s *clientSender) SendMessage(ctx context.Context, chatID int64, text string, actions ...service.Action) error {
	return s.client.SendMessage(ctx, chatID, text, actionsMarkup(actions))
}

func (s *clientSender) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, actions ...service.Action) error {
	return s.client.SendPhoto(ctx, chatID, photoURL, caption, actionsMarkup(actions))
}

func actionsMarkup(actions []service.Action) any {
	if len(actions) == 0 {
		return nil
	}
	rows := make([][]telegram.InlineKeyboardButton, 0, len(actions))
	for _, action := range actions {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         action.Label,
			CallbackData: action.Data,
		}})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Package telegram is a minimal Bot API client covering the calls the
// bot actually makes: long polling plus message, photo, edit, and
// callback-answer delivery.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

const defaultAPIBase = "https://api.telegram.org"

// Client talks to the Telegram Bot API over HTTP.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
	logger     *zap.Logger
}

// NewClient creates a client for the given bot token.
func NewClient(token string, pollTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			// Must exceed the long-poll timeout or getUpdates would
			// be cut off mid-wait.
			Timeout: pollTimeout + 10*time.Second,
		},
		apiBase: defaultAPIBase,
		token:   token,
		logger:  logger,
	}
}

// apiResponse is the Bot API envelope.
type apiResponse struct {
	Ok          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
}

// GetMe verifies the bot credential. Used at startup to fail fast on a
// bad token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new updates past the given offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage delivers a text message, optionally with a keyboard
// (InlineKeyboardMarkup or ReplyKeyboardMarkup).
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if replyMarkup != nil {
		payload["reply_markup"] = replyMarkup
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendPhoto delivers a photo by URL with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, replyMarkup any) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	}
	if replyMarkup != nil {
		payload["reply_markup"] = replyMarkup
	}
	return c.call(ctx, "sendPhoto", payload, nil)
}

// EditMessageText rewrites a previously sent message in place.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, replyMarkup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if replyMarkup != nil {
		payload["reply_markup"] = replyMarkup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

// AnswerCallbackQuery acknowledges a button press, optionally with an
// alert popup.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, showAlert bool) error {
	payload := map[string]any{
		"callback_query_id": callbackID,
	}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = showAlert
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportFailure(fmt.Sprintf("telegram %s request failed", method), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportFailure(fmt.Sprintf("telegram %s read failed", method), err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperrors.NewTransportFailure(fmt.Sprintf("telegram %s bad response", method), err)
	}
	if !envelope.Ok {
		c.logger.Debug("telegram API error",
			zap.String("method", method),
			zap.String("description", envelope.Description))
		return apperrors.NewTransportFailure(
			fmt.Sprintf("telegram %s: %s", method, envelope.Description), nil)
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return apperrors.NewTransportFailure(fmt.Sprintf("telegram %s decode failed", method), err)
		}
	}
	return nil
}

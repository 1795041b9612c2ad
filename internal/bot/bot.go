// Package bot routes normalized Telegram updates to the catalog, wizard,
// and admin surfaces. Each update is handled on its own goroutine; the
// wizard engine serializes per-user state underneath.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-bot/internal/config"
	"github.com/spec-kit/storefront-bot/internal/observability"
	"github.com/spec-kit/storefront-bot/internal/repository"
	"github.com/spec-kit/storefront-bot/internal/service"
	"github.com/spec-kit/storefront-bot/internal/telegram"
	"github.com/spec-kit/storefront-bot/internal/wizard"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

const (
	msgWelcome        = "Добро пожаловать в магазин работ"
	msgMainMenu       = "Главное меню"
	msgPickCategory   = "Выберите предмет"
	msgPickItem       = "Выберите работу"
	msgItemNotFound   = "Товар не найден"
	msgNotFound       = "Не найдено"
	msgAlreadyDone    = "Уже обработано"
	msgGenericFailure = "Произошла ошибка, попробуйте позже"
	msgOrderDeleted   = "Заказ удалён"
)

// Bot is the update dispatcher.
type Bot struct {
	client  *telegram.Client
	engine  *wizard.Engine
	users   repository.UserRepository
	catalog *service.CatalogService
	tickets *service.TicketService
	orders  *service.OrderService
	cfg     config.BotConfig
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Dependencies bundles everything the dispatcher needs.
type Dependencies struct {
	Client  *telegram.Client
	Engine  *wizard.Engine
	Users   repository.UserRepository
	Catalog *service.CatalogService
	Tickets *service.TicketService
	Orders  *service.OrderService
	Config  config.BotConfig
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New constructs the bot and registers its wizard flows.
func New(deps Dependencies) (*Bot, error) {
	b := &Bot{
		client:  deps.Client,
		engine:  deps.Engine,
		users:   deps.Users,
		catalog: deps.Catalog,
		tickets: deps.Tickets,
		orders:  deps.Orders,
		cfg:     deps.Config,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
	if err := b.registerFlows(); err != nil {
		return nil, err
	}
	return b, nil
}

// Run long-polls for updates until the context is cancelled. Updates are
// dispatched concurrently; per-user ordering is not guaranteed here.
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.cfg.PollTimeout())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Warn("getUpdates failed", zap.Error(err))
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.metrics.RecordUpdate("message")
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.metrics.RecordUpdate("callback")
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start":
		if err := b.users.Upsert(ctx, userID); err != nil {
			b.logger.Error("user upsert failed", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(ctx, userID, msgGenericFailure, nil)
			return
		}
		b.reply(ctx, userID, msgWelcome, mainKeyboard())
		return

	case btnCatalog:
		categories, err := b.catalog.ListCategories(ctx)
		if err != nil {
			b.logger.Error("list categories failed", zap.Error(err))
			b.reply(ctx, userID, msgGenericFailure, nil)
			return
		}
		b.reply(ctx, userID, msgPickCategory, categoriesKeyboard(categories))
		return

	case btnSupport:
		result, err := b.engine.Begin(ctx, userID, wizard.FlowSupport, nil)
		if err != nil {
			b.logger.Error("begin support flow failed", zap.Error(err))
			b.reply(ctx, userID, msgGenericFailure, nil)
			return
		}
		b.reply(ctx, userID, result.Prompt, nil)
		return

	case "/tickets":
		if b.cfg.IsAdmin(userID) {
			b.showTickets(ctx, userID)
		}
		return

	case "/orders":
		if b.cfg.IsAdmin(userID) {
			b.showOrders(ctx, userID)
		}
		return
	}

	b.handleFlowInput(ctx, userID, msg.Text)
}

// handleFlowInput feeds free text into the wizard. Text with no active
// flow is silently ignored.
func (b *Bot) handleFlowInput(ctx context.Context, userID int64, text string) {
	result, err := b.engine.HandleInput(ctx, userID, text)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNoActiveFlow) {
			return
		}
		b.replyFlowError(ctx, userID, err)
		return
	}
	if result.Done {
		return
	}
	if result.AwaitConfirm {
		b.reply(ctx, userID, result.Prompt, confirmKeyboard())
		return
	}
	b.reply(ctx, userID, result.Prompt, nil)
}

func (b *Bot) handleCallback(ctx context.Context, callback *telegram.CallbackQuery) {
	userID := callback.From.ID
	cmd := ParseCallback(callback.Data)

	ack := func(text string, alert bool) {
		if err := b.client.AnswerCallbackQuery(ctx, callback.ID, text, alert); err != nil {
			b.logger.Debug("answerCallbackQuery failed", zap.Error(err))
		}
	}

	switch cmd.Kind {
	case CmdCategory:
		items, err := b.catalog.ListItems(ctx, cmd.ID)
		if err != nil {
			b.logger.Error("list items failed", zap.Int64("category_id", cmd.ID), zap.Error(err))
			ack(msgGenericFailure, true)
			return
		}
		b.editOrSend(ctx, callback, msgPickItem, itemsKeyboard(items))
		ack("", false)

	case CmdItem:
		item, err := b.catalog.GetItem(ctx, cmd.ID)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeNotFound) {
				ack(msgItemNotFound, true)
				return
			}
			b.logger.Error("get item failed", zap.Int64("item_id", cmd.ID), zap.Error(err))
			ack(msgGenericFailure, true)
			return
		}
		category, err := b.catalog.GetCategory(ctx, item.CategoryID)
		if err != nil {
			b.logger.Error("get category failed", zap.Int64("category_id", item.CategoryID), zap.Error(err))
			ack(msgGenericFailure, true)
			return
		}
		card := fmt.Sprintf("Название: %s\nОписание: %s\nКатегория: %s\nЦена: %d₽",
			item.Name, item.Description, category.Name, item.Price)
		b.editOrSend(ctx, callback, card, itemKeyboard(item.ID))
		ack("", false)

	case CmdBuy:
		if _, err := b.catalog.GetItem(ctx, cmd.ID); err != nil {
			if apperrors.IsCode(err, apperrors.CodeNotFound) {
				ack(msgItemNotFound, true)
				return
			}
			ack(msgGenericFailure, true)
			return
		}
		result, err := b.engine.Begin(ctx, userID, wizard.FlowPurchase, seedID(wizard.FieldItemID, cmd.ID))
		if err != nil {
			b.logger.Error("begin purchase flow failed", zap.Error(err))
			ack(msgGenericFailure, true)
			return
		}
		b.reply(ctx, userID, result.Prompt, nil)
		ack("", false)

	case CmdConfirm:
		if _, err := b.engine.Confirm(ctx, userID); err != nil {
			if apperrors.IsCode(err, apperrors.CodeNoActiveFlow) ||
				apperrors.IsCode(err, apperrors.CodeValidationFailed) {
				ack("", false)
				return
			}
			b.replyFlowError(ctx, userID, err)
			ack("", false)
			return
		}
		ack("", false)

	case CmdPaid:
		ack("", false)

	case CmdToMain:
		if err := b.engine.Cancel(ctx, userID); err != nil {
			b.logger.Warn("cancel failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		b.reply(ctx, userID, msgMainMenu, mainKeyboard())
		ack("", false)

	case CmdTicket:
		if !b.cfg.IsAdmin(userID) {
			ack("", false)
			return
		}
		ticket, err := b.tickets.Get(ctx, cmd.ID)
		if err != nil {
			ack(msgNotFound, true)
			return
		}
		detail := fmt.Sprintf("Тикет #%d\nОт: %s\nВопрос: %s",
			ticket.ID, ticket.RequesterName, ticket.Question)
		b.editOrSend(ctx, callback, detail, ticketKeyboard(ticket.ID))
		ack("", false)

	case CmdAnswerTicket:
		if !b.cfg.IsAdmin(userID) {
			ack("", false)
			return
		}
		result, err := b.engine.Begin(ctx, userID, wizard.FlowTicketReply, seedID(wizard.FieldTicketID, cmd.ID))
		if err != nil {
			ack(msgGenericFailure, true)
			return
		}
		b.reply(ctx, userID, result.Prompt, nil)
		ack("", false)

	case CmdOrder:
		if !b.cfg.IsAdmin(userID) {
			ack("", false)
			return
		}
		order, item, err := b.orders.GetWithItem(ctx, cmd.ID)
		if err != nil {
			ack(msgNotFound, true)
			return
		}
		detail := fmt.Sprintf("Заказ #%d\nТовар: %s\nЦена: %d₽\nКлиент: %s\nВариант: %s",
			order.ID, item.Name, order.Price, order.RequesterName, order.Variant)
		b.editOrSend(ctx, callback, detail, orderKeyboard(order.ID))
		ack("", false)

	case CmdAnswerOrder:
		if !b.cfg.IsAdmin(userID) {
			ack("", false)
			return
		}
		result, err := b.engine.Begin(ctx, userID, wizard.FlowOrderReply, seedID(wizard.FieldOrderID, cmd.ID))
		if err != nil {
			ack(msgGenericFailure, true)
			return
		}
		b.reply(ctx, userID, result.Prompt, nil)
		ack("", false)

	case CmdDeleteOrder:
		if !b.cfg.IsAdmin(userID) {
			ack("", false)
			return
		}
		if err := b.orders.Delete(ctx, cmd.ID); err != nil {
			if apperrors.IsCode(err, apperrors.CodeNotFound) {
				ack(msgNotFound, true)
				return
			}
			ack(msgGenericFailure, true)
			return
		}
		b.showOrders(ctx, userID)
		ack(msgOrderDeleted, false)

	default:
		ack("", false)
	}
}

func (b *Bot) showTickets(ctx context.Context, adminID int64) {
	tickets, err := b.tickets.ListOpen(ctx)
	if err != nil {
		b.logger.Error("list tickets failed", zap.Error(err))
		b.reply(ctx, adminID, msgGenericFailure, nil)
		return
	}
	b.reply(ctx, adminID, "Тикеты:", ticketsKeyboard(tickets))
}

func (b *Bot) showOrders(ctx context.Context, adminID int64) {
	orders, err := b.orders.List(ctx, nil)
	if err != nil {
		b.logger.Error("list orders failed", zap.Error(err))
		b.reply(ctx, adminID, msgGenericFailure, nil)
		return
	}

	categoryNames := make(map[int64]string)
	if categories, err := b.catalog.ListCategories(ctx); err == nil {
		for _, category := range categories {
			categoryNames[category.ID] = category.Name
		}
	}
	b.reply(ctx, adminID, "Заказы:", ordersKeyboard(orders, categoryNames))
}

// replyFlowError maps commit failures to user-visible notices.
func (b *Bot) replyFlowError(ctx context.Context, userID int64, err error) {
	switch {
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		b.reply(ctx, userID, msgItemNotFound, nil)
	case apperrors.IsCode(err, apperrors.CodeAlreadyResolved):
		b.reply(ctx, userID, msgAlreadyDone, nil)
	default:
		b.logger.Error("flow commit failed", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(ctx, userID, msgGenericFailure, nil)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup any) {
	if err := b.client.SendMessage(ctx, chatID, text, markup); err != nil {
		b.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// editOrSend rewrites the message the button lives on, falling back to a
// fresh message when the original is gone.
func (b *Bot) editOrSend(ctx context.Context, callback *telegram.CallbackQuery, text string, markup *telegram.InlineKeyboardMarkup) {
	if callback.Message != nil {
		err := b.client.EditMessageText(ctx, callback.Message.Chat.ID, callback.Message.MessageID, text, markup)
		if err == nil {
			return
		}
		b.logger.Debug("edit failed, sending new message", zap.Error(err))
	}
	b.reply(ctx, callback.From.ID, text, markup)
}

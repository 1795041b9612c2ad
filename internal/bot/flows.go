package bot

import (
	"context"
	"strconv"

	"github.com/spec-kit/storefront-bot/internal/session"
	"github.com/spec-kit/storefront-bot/internal/wizard"
)

// registerFlows wires the four conversation flows into the engine. The
// commit callbacks close over the services; every commit converts the
// snapshot into a typed draft first, so a half-filled session can never
// reach a store.
func (b *Bot) registerFlows() error {
	support := wizard.Flow{
		Name: wizard.FlowSupport,
		Steps: []wizard.Step{
			{Field: wizard.FieldFIO, Prompt: "Введите ваше имя и фамилию", Validate: wizard.NonEmpty()},
			{Field: wizard.FieldQuestion, Prompt: "Введите ваш вопрос", Validate: wizard.NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			draft, err := wizard.SupportDraftFromSnapshot(snap)
			if err != nil {
				return err
			}
			if _, err := b.tickets.Create(ctx, userID, draft); err != nil {
				return err
			}
			b.metrics.RecordCommit(wizard.FlowSupport)
			b.reply(ctx, userID, "Ваш вопрос принят!", nil)
			return nil
		},
	}

	purchase := wizard.Flow{
		Name: wizard.FlowPurchase,
		Steps: []wizard.Step{
			{Field: wizard.FieldFIO, Prompt: "Введите ФИО для работы", Validate: wizard.NonEmpty()},
			{Field: wizard.FieldVariant, Prompt: "Введите вариант работы (если нет варианта, введите 0)", Validate: wizard.NonEmpty()},
		},
		ConfirmPrompt: "Подтвердите заказ",
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			draft, err := wizard.PurchaseDraftFromSnapshot(snap)
			if err != nil {
				return err
			}
			if _, err := b.orders.Place(ctx, userID, draft); err != nil {
				return err
			}
			b.metrics.RecordCommit(wizard.FlowPurchase)
			return nil
		},
	}

	ticketReply := wizard.Flow{
		Name: wizard.FlowTicketReply,
		Steps: []wizard.Step{
			{Field: wizard.FieldReply, Prompt: "Введите ответ на тикет:", Validate: wizard.NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			draft, err := wizard.ReplyDraftFromSnapshot(snap, wizard.FieldTicketID)
			if err != nil {
				return err
			}
			if err := b.tickets.Resolve(ctx, draft.TargetID, draft.Reply); err != nil {
				return err
			}
			b.metrics.RecordCommit(wizard.FlowTicketReply)
			b.reply(ctx, userID, "Ответ отправлен пользователю!", nil)
			return nil
		},
	}

	orderReply := wizard.Flow{
		Name: wizard.FlowOrderReply,
		Steps: []wizard.Step{
			{Field: wizard.FieldReply, Prompt: "Введите ответ для клиента:", Validate: wizard.NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			draft, err := wizard.ReplyDraftFromSnapshot(snap, wizard.FieldOrderID)
			if err != nil {
				return err
			}
			if err := b.orders.Resolve(ctx, draft.TargetID, draft.Reply); err != nil {
				return err
			}
			b.metrics.RecordCommit(wizard.FlowOrderReply)
			b.reply(ctx, userID, "Ответ отправлен клиенту!", nil)
			return nil
		},
	}

	for _, flow := range []wizard.Flow{support, purchase, ticketReply, orderReply} {
		if err := b.engine.Register(flow); err != nil {
			return err
		}
	}
	return nil
}

func seedID(field string, id int64) map[string]string {
	return map[string]string{field: strconv.FormatInt(id, 10)}
}

package bot

import (
	"fmt"

	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/telegram"
)

// Reply-keyboard labels doubling as message routes.
const (
	btnCatalog  = "Каталог"
	btnSupport  = "Задать вопрос"
	btnToMain   = "На главную"
	btnBack     = "Назад"
	btnBuy      = "Купить"
	btnConfirm  = "Подтвердить"
	btnPaid     = "Оплачено"
	btnAnswer   = "Ответить"
	btnComplete = "Выполнено"
	btnDelete   = "Удалить"
)

func mainKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnCatalog}},
			{{Text: btnSupport}},
		},
		ResizeKeyboard:        true,
		InputFieldPlaceholder: "Выберите пункт меню",
	}
}

func toMainButton() telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: btnToMain, CallbackData: Command{Kind: CmdToMain}.Data()}
}

// categoriesKeyboard lays category buttons out two per row.
func categoriesKeyboard(categories []domain.Category) *telegram.InlineKeyboardMarkup {
	buttons := make([]telegram.InlineKeyboardButton, 0, len(categories)+1)
	for _, category := range categories {
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         category.Name,
			CallbackData: Command{Kind: CmdCategory, ID: category.ID}.Data(),
		})
	}
	buttons = append(buttons, toMainButton())
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: chunkButtons(buttons, 2)}
}

func itemsKeyboard(items []domain.Item) *telegram.InlineKeyboardMarkup {
	buttons := make([]telegram.InlineKeyboardButton, 0, len(items)+1)
	for _, item := range items {
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         item.Name,
			CallbackData: Command{Kind: CmdItem, ID: item.ID}.Data(),
		})
	}
	buttons = append(buttons, toMainButton())
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: chunkButtons(buttons, 2)}
}

func itemKeyboard(itemID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: btnBuy, CallbackData: Command{Kind: CmdBuy, ID: itemID}.Data()}},
		{toMainButton()},
	}}
}

func confirmKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: btnConfirm, CallbackData: Command{Kind: CmdConfirm}.Data()}},
		{toMainButton()},
	}}
}

func ticketsKeyboard(tickets []domain.Ticket) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(tickets)+1)
	for _, ticket := range tickets {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("Тикет #%d", ticket.ID),
			CallbackData: Command{Kind: CmdTicket, ID: ticket.ID}.Data(),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{toMainButton()})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func ticketKeyboard(ticketID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: btnAnswer, CallbackData: Command{Kind: CmdAnswerTicket, ID: ticketID}.Data()}},
		{toMainButton()},
	}}
}

func ordersKeyboard(orders []domain.Order, categoryNames map[int64]string) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(orders)+1)
	for _, order := range orders {
		label := fmt.Sprintf("Заказ #%d", order.ID)
		if name, ok := categoryNames[order.CategoryID]; ok {
			label = fmt.Sprintf("Заказ #%d - %s", order.ID, name)
		}
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         label,
			CallbackData: Command{Kind: CmdOrder, ID: order.ID}.Data(),
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{toMainButton()})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func orderKeyboard(orderID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: btnComplete, CallbackData: Command{Kind: CmdAnswerOrder, ID: orderID}.Data()}},
		{{Text: btnDelete, CallbackData: Command{Kind: CmdDeleteOrder, ID: orderID}.Data()}},
		{toMainButton()},
	}}
}

func chunkButtons(buttons []telegram.InlineKeyboardButton, perRow int) [][]telegram.InlineKeyboardButton {
	var rows [][]telegram.InlineKeyboardButton
	for len(buttons) > 0 {
		n := perRow
		if len(buttons) < n {
			n = len(buttons)
		}
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}

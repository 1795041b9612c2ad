package bot

import (
	"strconv"
	"strings"
)

// CommandKind tags a decoded callback command.
type CommandKind string

const (
	CmdCategory     CommandKind = "category"
	CmdItem         CommandKind = "item"
	CmdBuy          CommandKind = "buy"
	CmdConfirm      CommandKind = "confirm"
	CmdPaid         CommandKind = "paid"
	CmdToMain       CommandKind = "to_main"
	CmdTicket       CommandKind = "ticket"
	CmdAnswerTicket CommandKind = "answerticket"
	CmdOrder        CommandKind = "order"
	CmdAnswerOrder  CommandKind = "answerorder"
	CmdDeleteOrder  CommandKind = "deleteorder"
	CmdUnknown      CommandKind = "unknown"
)

// Command is a callback payload decoded once at the transport boundary.
// Button data uses the verb_argument convention (e.g. "item_12").
type Command struct {
	Kind CommandKind
	ID   int64
}

var argVerbs = map[string]CommandKind{
	"category":     CmdCategory,
	"item":         CmdItem,
	"buy":          CmdBuy,
	"ticket":       CmdTicket,
	"answerticket": CmdAnswerTicket,
	"order":        CmdOrder,
	"answerorder":  CmdAnswerOrder,
	"deleteorder":  CmdDeleteOrder,
}

// ParseCallback decodes raw callback data into a tagged command.
// Unrecognized payloads come back as CmdUnknown rather than an error;
// the dispatcher ignores them.
func ParseCallback(data string) Command {
	switch data {
	case "confirm":
		return Command{Kind: CmdConfirm}
	case "paid":
		return Command{Kind: CmdPaid}
	case "to_main":
		return Command{Kind: CmdToMain}
	}

	verb, arg, found := strings.Cut(data, "_")
	if !found {
		return Command{Kind: CmdUnknown}
	}
	kind, ok := argVerbs[verb]
	if !ok {
		return Command{Kind: CmdUnknown}
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return Command{Kind: CmdUnknown}
	}
	return Command{Kind: kind, ID: id}
}

// Data renders the command back to callback data for keyboards.
func (c Command) Data() string {
	switch c.Kind {
	case CmdConfirm, CmdPaid, CmdToMain:
		return string(c.Kind)
	case CmdUnknown:
		return ""
	default:
		return string(c.Kind) + "_" + strconv.FormatInt(c.ID, 10)
	}
}

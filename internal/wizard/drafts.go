package wizard

import (
	"strconv"
	"strings"

	"github.com/spec-kit/storefront-bot/internal/session"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// Flow names.
const (
	FlowSupport     = "support"
	FlowPurchase    = "purchase"
	FlowTicketReply = "ticket_reply"
	FlowOrderReply  = "order_reply"
)

// Answer fields.
const (
	FieldFIO      = "fio"
	FieldQuestion = "question"
	FieldVariant  = "variant"
	FieldItemID   = "item_id"
	FieldTicketID = "ticket_id"
	FieldOrderID  = "order_id"
	FieldReply    = "reply"
)

// NoVariant is the sentinel the purchase flow accepts for "no variant".
const NoVariant = "0"

// SupportDraft is a completed support flow ready to become a Ticket.
type SupportDraft struct {
	FIO      string
	Question string
}

// PurchaseDraft is a completed purchase flow ready to become an Order.
type PurchaseDraft struct {
	ItemID  int64
	FIO     string
	Variant string
}

// ReplyDraft is a completed admin one-step reply flow.
type ReplyDraft struct {
	TargetID int64
	Reply    string
}

// SupportDraftFromSnapshot converts a snapshot into a typed draft,
// failing if any required field is absent or blank.
func SupportDraftFromSnapshot(snap session.Session) (SupportDraft, error) {
	fio, err := requiredField(snap, FieldFIO)
	if err != nil {
		return SupportDraft{}, err
	}
	question, err := requiredField(snap, FieldQuestion)
	if err != nil {
		return SupportDraft{}, err
	}
	return SupportDraft{FIO: fio, Question: question}, nil
}

// PurchaseDraftFromSnapshot converts a snapshot into a typed draft.
func PurchaseDraftFromSnapshot(snap session.Session) (PurchaseDraft, error) {
	itemID, err := requiredIDField(snap, FieldItemID)
	if err != nil {
		return PurchaseDraft{}, err
	}
	fio, err := requiredField(snap, FieldFIO)
	if err != nil {
		return PurchaseDraft{}, err
	}
	variant, err := requiredField(snap, FieldVariant)
	if err != nil {
		return PurchaseDraft{}, err
	}
	return PurchaseDraft{ItemID: itemID, FIO: fio, Variant: variant}, nil
}

// ReplyDraftFromSnapshot converts a snapshot of an admin reply flow,
// reading the target record id from the named seed field.
func ReplyDraftFromSnapshot(snap session.Session, idField string) (ReplyDraft, error) {
	targetID, err := requiredIDField(snap, idField)
	if err != nil {
		return ReplyDraft{}, err
	}
	reply, err := requiredField(snap, FieldReply)
	if err != nil {
		return ReplyDraft{}, err
	}
	return ReplyDraft{TargetID: targetID, Reply: reply}, nil
}

func requiredField(snap session.Session, field string) (string, error) {
	value, ok := snap.Answers[field]
	if !ok || strings.TrimSpace(value) == "" {
		return "", apperrors.NewValidationError("missing required field", map[string]any{"field": field})
	}
	return value, nil
}

func requiredIDField(snap session.Session, field string) (int64, error) {
	raw, err := requiredField(snap, field)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("malformed id field", map[string]any{"field": field})
	}
	return id, nil
}

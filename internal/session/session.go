// Package session holds per-user wizard state: the active flow, the
// current step, and the answers collected so far. State is ephemeral
// and keyed solely by chat id; at most one flow is active per user.
package session

import (
	"context"

	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// Session is a snapshot of one user's in-progress flow.
type Session struct {
	Flow    string            `json:"flow"`
	Step    string            `json:"step"`
	Answers map[string]string `json:"answers"`
}

// Store is the per-user session scratchpad. Begin overwrites any prior
// session for the user; SetAnswer and Advance fail with NO_ACTIVE_FLOW
// when no flow is in progress; Clear is idempotent.
type Store interface {
	Begin(ctx context.Context, userID int64, flow, step string, seed map[string]string) error
	SetAnswer(ctx context.Context, userID int64, field, value string) error
	Advance(ctx context.Context, userID int64, step string) error
	Snapshot(ctx context.Context, userID int64) (Session, error)
	Clear(ctx context.Context, userID int64) error
}

// ErrNoActiveFlow is returned by stores when the user has no session.
func ErrNoActiveFlow() error {
	return apperrors.NewNoActiveFlow()
}

func seedAnswers(seed map[string]string) map[string]string {
	answers := make(map[string]string, len(seed))
	for k, v := range seed {
		answers[k] = v
	}
	return answers
}

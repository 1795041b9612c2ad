package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-bot/internal/session"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

func newTestEngine(t *testing.T) (*Engine, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)
	return NewEngine(store, zap.NewNop()), store
}

func TestEngineLinearFlowCommitsFullSnapshot(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	var committed session.Session
	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
			{Field: "question", Prompt: "question?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			committed = snap
			return nil
		},
	}))

	result, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)
	require.Equal(t, "name?", result.Prompt)

	result, err = engine.HandleInput(ctx, 1, "Ivan Petrov")
	require.NoError(t, err)
	require.Equal(t, "question?", result.Prompt)

	result, err = engine.HandleInput(ctx, 1, "Where is my order?")
	require.NoError(t, err)
	require.True(t, result.Done)

	require.Equal(t, "Ivan Petrov", committed.Answers["fio"])
	require.Equal(t, "Where is my order?", committed.Answers["question"])

	// Session is gone after commit.
	_, err = engine.HandleInput(ctx, 1, "more text")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestEngineInvalidInputRepromptsWithoutAdvancing(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	committed := false
	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			committed = true
			return nil
		},
	}))

	_, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)

	result, err := engine.HandleInput(ctx, 1, "   ")
	require.NoError(t, err)
	require.True(t, result.Invalid)
	require.Equal(t, "name?", result.Prompt)
	require.False(t, committed)

	result, err = engine.HandleInput(ctx, 1, "Ivan")
	require.NoError(t, err)
	require.True(t, result.Done)
	require.True(t, committed)
}

func TestEngineNoActiveFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.HandleInput(context.Background(), 1, "hello")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestEngineRestartDiscardsPriorAnswers(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	var committed session.Session
	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
			{Field: "question", Prompt: "question?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			committed = snap
			return nil
		},
	}))

	_, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)
	_, err = engine.HandleInput(ctx, 1, "Stale Name")
	require.NoError(t, err)

	_, err = engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)
	_, err = engine.HandleInput(ctx, 1, "Fresh Name")
	require.NoError(t, err)
	result, err := engine.HandleInput(ctx, 1, "A question")
	require.NoError(t, err)
	require.True(t, result.Done)

	require.Equal(t, "Fresh Name", committed.Answers["fio"])
}

func TestEngineConfirmFlow(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	commits := 0
	require.NoError(t, engine.Register(Flow{
		Name: "purchase",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
			{Field: "variant", Prompt: "variant?", Validate: NonEmpty()},
		},
		ConfirmPrompt: "confirm?",
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			commits++
			return nil
		},
	}))

	_, err := engine.Begin(ctx, 1, "purchase", map[string]string{"item_id": "12"})
	require.NoError(t, err)
	_, err = engine.HandleInput(ctx, 1, "Ivan Petrov")
	require.NoError(t, err)

	result, err := engine.HandleInput(ctx, 1, "0")
	require.NoError(t, err)
	require.True(t, result.AwaitConfirm)
	require.Equal(t, "confirm?", result.Prompt)
	require.Zero(t, commits)

	// Stray text at the confirm stage re-prompts, it does not commit.
	result, err = engine.HandleInput(ctx, 1, "yes please")
	require.NoError(t, err)
	require.True(t, result.AwaitConfirm)
	require.Zero(t, commits)

	result, err = engine.Confirm(ctx, 1)
	require.NoError(t, err)
	require.True(t, result.Done)
	require.Equal(t, 1, commits)

	// Second confirm has nothing to act on.
	_, err = engine.Confirm(ctx, 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestEngineConfirmWithoutPendingStage(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
			{Field: "question", Prompt: "question?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error { return nil },
	}))

	_, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)

	_, err = engine.Confirm(ctx, 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestEngineCommitErrorClearsSession(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	commitErr := apperrors.NewNotFound("item", nil)
	require.NoError(t, engine.Register(Flow{
		Name: "purchase",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			return commitErr
		},
	}))

	_, err := engine.Begin(ctx, 1, "purchase", nil)
	require.NoError(t, err)

	_, err = engine.HandleInput(ctx, 1, "Ivan")
	require.True(t, errors.Is(err, commitErr) || apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = engine.HandleInput(ctx, 1, "again")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestEngineCancelDiscardsState(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error { return nil },
	}))

	_, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(ctx, 1))

	_, err = engine.HandleInput(ctx, 1, "Ivan")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestEngineSerializesConcurrentInputs(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	commits := 0
	require.NoError(t, engine.Register(Flow{
		Name: "support",
		Steps: []Step{
			{Field: "fio", Prompt: "name?", Validate: NonEmpty()},
			{Field: "question", Prompt: "question?", Validate: NonEmpty()},
		},
		Commit: func(ctx context.Context, userID int64, snap session.Session) error {
			commits++
			return nil
		},
	}))

	_, err := engine.Begin(ctx, 1, "support", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.HandleInput(ctx, 1, "input")
		}()
	}
	wg.Wait()

	// Two answered steps mean exactly one commit no matter how the ten
	// inputs interleave; the rest hit NO_ACTIVE_FLOW.
	require.Equal(t, 1, commits)
}

func TestDraftsRequireAllFields(t *testing.T) {
	_, err := SupportDraftFromSnapshot(session.Session{Answers: map[string]string{"fio": "Ivan"}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	draft, err := PurchaseDraftFromSnapshot(session.Session{Answers: map[string]string{
		"item_id": "12", "fio": "Ivan Petrov", "variant": "0",
	}})
	require.NoError(t, err)
	require.Equal(t, int64(12), draft.ItemID)
	require.Equal(t, "0", draft.Variant)

	_, err = PurchaseDraftFromSnapshot(session.Session{Answers: map[string]string{
		"item_id": "twelve", "fio": "Ivan", "variant": "0",
	}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	reply, err := ReplyDraftFromSnapshot(session.Session{Answers: map[string]string{
		"ticket_id": "5", "reply": "Resolved, see attached",
	}}, FieldTicketID)
	require.NoError(t, err)
	require.Equal(t, int64(5), reply.TargetID)
}

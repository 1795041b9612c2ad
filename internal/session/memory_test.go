package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 1, "support", "fio", nil))
	require.NoError(t, store.SetAnswer(ctx, 1, "fio", "Ivan Petrov"))
	require.NoError(t, store.Advance(ctx, 1, "question"))

	snap, err := store.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "support", snap.Flow)
	require.Equal(t, "question", snap.Step)
	require.Equal(t, "Ivan Petrov", snap.Answers["fio"])

	require.NoError(t, store.Clear(ctx, 1))
	_, err = store.Snapshot(ctx, 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
}

func TestMemoryStoreNoActiveFlow(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	err := store.SetAnswer(ctx, 7, "fio", "x")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))

	err = store.Advance(ctx, 7, "question")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))

	// Clear with no session is idempotent, not an error.
	require.NoError(t, store.Clear(ctx, 7))
}

func TestMemoryStoreBeginDiscardsPriorAnswers(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 1, "support", "fio", nil))
	require.NoError(t, store.SetAnswer(ctx, 1, "fio", "Old Name"))

	require.NoError(t, store.Begin(ctx, 1, "purchase", "fio", map[string]string{"item_id": "12"}))

	snap, err := store.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "purchase", snap.Flow)
	require.Equal(t, map[string]string{"item_id": "12"}, snap.Answers)
}

func TestMemoryStoreSeedIsCopied(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	seed := map[string]string{"item_id": "12"}
	require.NoError(t, store.Begin(ctx, 1, "purchase", "fio", seed))
	seed["item_id"] = "99"

	snap, err := store.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "12", snap.Answers["item_id"])
}

func TestMemoryStoreSnapshotIsolation(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 1, "support", "fio", nil))
	snap, err := store.Snapshot(ctx, 1)
	require.NoError(t, err)
	snap.Answers["fio"] = "mutated"

	fresh, err := store.Snapshot(ctx, 1)
	require.NoError(t, err)
	require.NotContains(t, fresh.Answers, "fio")
}

func TestMemoryStoreEvictsIdleSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, 1, "support", "fio", nil))
	require.NoError(t, store.Begin(ctx, 2, "support", "fio", nil))

	// Age user 1's session past the TTL by hand, then sweep.
	store.mu.Lock()
	store.sessions[1].lastSeen = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()
	store.evictIdle(time.Now())

	_, err := store.Snapshot(ctx, 1)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNoActiveFlow))
	_, err = store.Snapshot(ctx, 2)
	require.NoError(t, err)
}

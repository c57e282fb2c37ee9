package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache", "messages.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func msg(id, sender, body string, at time.Time) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		Body:       body,
		Timestamp:  at,
		Moderation: models.ModerationStateActive,
	}
}

func TestSaveAndLoadThread(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{
		msg("m2", "u2", "claro, sigue a la venta", base.Add(time.Minute)),
		msg("m1", "u1", "hola, sigue disponible?", base),
	}))

	thread, err := store.Thread(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	require.Equal(t, "m1", thread[0].ID, "cached thread comes back in chronological order")
	require.Equal(t, "m2", thread[1].ID)
	require.Equal(t, "c1", thread[0].ConversationID)
}

func TestUnknownConversationIsEmpty(t *testing.T) {
	store := openTestStore(t)
	thread, err := store.Thread(context.Background(), "nope")
	require.NoError(t, err)
	require.Empty(t, thread)
}

func TestUpsertRefreshesRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	first := msg("m1", "u1", "hola", base)
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{first}))

	second := first
	second.ReadBy = []string{"u2"}
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{second}))

	thread, err := store.Thread(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Equal(t, []string{"u2"}, thread[0].ReadBy)
}

func TestDeletedRowNeverRevertsToOriginalBody(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	original := msg("m1", "u1", "contenido ofensivo", base)
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{original}))
	require.NoError(t, store.MarkDeleted(ctx, "c1", "m1"))

	// A stale fetch still carrying the body must not resurrect it.
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{original}))

	thread, err := store.Thread(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.True(t, thread[0].Deleted())
	require.Empty(t, thread[0].Body)
	require.Equal(t, models.DeletedMessagePlaceholder, thread[0].DisplayBody())
}

func TestPendingMessagesNotCached(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	pending := msg("local-1", "u1", "draft", time.Now().UTC())
	pending.Pending = true
	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{pending}))

	thread, err := store.Thread(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, thread)
}

func TestPruneDropsOldRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveThread(ctx, "c1", []models.Message{
		msg("m1", "u1", "hola", time.Now().UTC()),
	}))
	require.NoError(t, store.Prune(ctx, 0))

	thread, err := store.Thread(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, thread)
}

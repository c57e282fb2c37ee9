package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func storeWith(t *testing.T, backend *fakeBackend, selfID string) *Store {
	t.Helper()
	store, err := NewStore(selfID, backend)
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresUser(t *testing.T) {
	_, err := NewStore("", newFakeBackend())
	require.ErrorIs(t, err, ErrNoCurrentUser)
}

func TestLoadComputesInitialTitles(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{
			ID:           "c1",
			Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8", OwnerName: "Laura Gómez"},
		},
		{
			ID:           "c2",
			Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "9"},
		},
	}
	store := storeWith(t, backend, "4")

	convs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	require.Equal(t, "Laura Gómez", convs[0].DisplayTitle)
	require.Equal(t, "Seller #9", convs[1].DisplayTitle)
}

func TestLoadPreservesResolvedTitleAndUnread(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}, UnreadCount: 1},
	}
	store := storeWith(t, backend, "4")
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	name := "Laura Gómez"
	require.NoError(t, store.Apply("c1", Patch{DisplayTitle: &name}))
	require.NoError(t, store.IncrementUnread("c1"))
	require.NoError(t, store.IncrementUnread("c1")) // local count now 3

	// A stale summary with a lower count and no name must not regress either.
	backend.mu.Lock()
	backend.conversations[0].UnreadCount = 1
	backend.mu.Unlock()

	convs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Laura Gómez", convs[0].DisplayTitle)
	require.Equal(t, 3, convs[0].UnreadCount)
}

func TestLoadKeepsEntriesMissingFromSummary(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}},
		{ID: "c2", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "9"}},
	}
	store := storeWith(t, backend, "4")
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	backend.mu.Lock()
	backend.conversations = backend.conversations[:1]
	backend.mu.Unlock()

	convs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2, "client-side entries are hidden, never removed")
}

func TestMarkReadLocally(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{
			ID:           "c1",
			Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"},
			UnreadCount:  5,
			Last:         models.LastMessage{Body: "hola", SenderID: "8", ReadBy: []string{"8"}},
		},
	}
	store := storeWith(t, backend, "4")
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.MarkReadLocally("c1"))

	conv, ok := store.Get("c1")
	require.True(t, ok)
	require.Zero(t, conv.UnreadCount)
	require.Contains(t, conv.Last.ReadBy, "4")

	// Idempotent: same user is not appended twice.
	require.NoError(t, store.MarkReadLocally("c1"))
	conv, _ = store.Get("c1")
	require.Equal(t, []string{"8", "4"}, conv.Last.ReadBy)
}

func TestApplyUnknownConversation(t *testing.T) {
	store := storeWith(t, newFakeBackend(), "4")
	require.ErrorIs(t, store.Apply("nope", Patch{}), ErrConversationUnknown)
	require.ErrorIs(t, store.MarkReadLocally("nope"), ErrConversationUnknown)
	require.ErrorIs(t, store.IncrementUnread("nope"), ErrConversationUnknown)
}

package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/api"
	"github.com/ismaelvargas20/motochat/internal/models"
)

func loadedStore(t *testing.T, backend *fakeBackend, selfID string) *Store {
	t.Helper()
	store := storeWith(t, backend, selfID)
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return store
}

func TestResolveDirectID(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}},
	}
	backend.profiles["8"] = api.Profile{ID: "8", Name: "Laura Gómez"}
	store := loadedStore(t, backend, "4")

	NewResolver(store, backend, "").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Laura Gómez", conv.DisplayTitle)
}

func TestResolveViaListing(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", RelatedListingID: "l1", RelatedListingType: models.ListingTypeMoto},
	}
	backend.listings["l1"] = api.Listing{ID: "l1", OwnerID: "8"}
	backend.profiles["8"] = api.Profile{ID: "8", Name: "Laura Gómez"}
	store := loadedStore(t, backend, "4")

	NewResolver(store, backend, "").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Laura Gómez", conv.DisplayTitle)
}

func TestResolveListingOwnedBySelfFallsBackToSender(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{
			ID:               "c1",
			RelatedListingID: "l1",
			Last:             models.LastMessage{SenderID: "4", Body: "¿sigue disponible?"},
		},
	}
	backend.listings["l1"] = api.Listing{ID: "l1", OwnerID: "8"}
	backend.profiles["4"] = api.Profile{ID: "4", Name: "Pedro Martín"}
	store := loadedStore(t, backend, "8")

	NewResolver(store, backend, "").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Pedro Martín", conv.DisplayTitle)
}

func TestResolveNeverSettlesOnSelf(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}},
	}
	backend.profiles["8"] = api.Profile{ID: "8", Name: "Ismael Vargas"}
	store := loadedStore(t, backend, "4")

	// Backend data is wrong and the counterpart resolves to the current
	// user's own name; the placeholder must remain.
	NewResolver(store, backend, "Ismael Vargas").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Seller #8", conv.DisplayTitle)
}

func TestResolveSwallowsFailures(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}, RelatedListingID: "l1"},
	}
	backend.profileErr = errors.New("boom")
	backend.listingErr = errors.New("boom")
	store := loadedStore(t, backend, "4")

	NewResolver(store, backend, "").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Seller #8", conv.DisplayTitle, "placeholder remains on enrichment failure")
}

func TestResolveNoOpOnDefinitiveTitle(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8", OwnerName: "Laura Gómez"}},
	}
	backend.profiles["8"] = api.Profile{ID: "8", Name: "Otro Nombre"}
	store := loadedStore(t, backend, "4")

	NewResolver(store, backend, "").Resolve(context.Background(), "c1")

	conv, _ := store.Get("c1")
	require.Equal(t, "Laura Gómez", conv.DisplayTitle)
}

func TestResolveAllSkipsResolvedEntries(t *testing.T) {
	backend := newFakeBackend()
	backend.conversations = []models.Conversation{
		{ID: "c1", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "8"}},
		{ID: "c2", Participants: models.ParticipantsHint{BuyerID: "4", OwnerID: "9", OwnerName: "Resuelta"}},
	}
	backend.profiles["8"] = api.Profile{ID: "8", Name: "Laura Gómez"}
	store := loadedStore(t, backend, "4")

	NewResolver(store, backend, "").ResolveAll(context.Background())

	c1, _ := store.Get("c1")
	c2, _ := store.Get("c2")
	require.Equal(t, "Laura Gómez", c1.DisplayTitle)
	require.Equal(t, "Resuelta", c2.DisplayTitle)
}

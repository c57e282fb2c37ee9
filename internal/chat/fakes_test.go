package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/ismaelvargas20/motochat/internal/api"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// fakeBackend is an in-memory stand-in for the REST client.
type fakeBackend struct {
	mu sync.Mutex

	conversations []models.Conversation
	messages      map[string][]models.Message
	notifications []models.Notification
	profiles      map[string]api.Profile
	listings      map[string]api.Listing

	listErr    error
	sendErr    error
	profileErr error
	listingErr error

	markReadCalls []string
	sentBodies    []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages: make(map[string][]models.Message),
		profiles: make(map[string]api.Profile),
		listings: make(map[string]api.Listing),
	}
}

func (f *fakeBackend) ListConversations(ctx context.Context, clientID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs, ok := f.messages[conversationID]
	if !ok {
		return nil, errors.New("unknown conversation")
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, conversationID, senderID, body string) (models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return models.Message{}, f.sendErr
	}
	f.sentBodies = append(f.sentBodies, body)
	echo := models.Message{
		ID:             "srv-" + body,
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		Moderation:     models.ModerationStateActive,
	}
	f.messages[conversationID] = append(f.messages[conversationID], echo)
	return echo, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, conversationID, clientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls = append(f.markReadCalls, conversationID)
	return nil
}

func (f *fakeBackend) ListNotifications(ctx context.Context, clientID string, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out, nil
}

func (f *fakeBackend) GetProfile(ctx context.Context, clientID string) (api.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return api.Profile{}, f.profileErr
	}
	p, ok := f.profiles[clientID]
	if !ok {
		return api.Profile{}, errors.New("profile not found")
	}
	return p, nil
}

func (f *fakeBackend) GetListing(ctx context.Context, listingID string, listingType models.ListingType) (api.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listingErr != nil {
		return api.Listing{}, f.listingErr
	}
	l, ok := f.listings[listingID]
	if !ok {
		return api.Listing{}, errors.New("listing not found")
	}
	return l, nil
}

// fakeEmitter records broadcast emits.
type fakeEmitter struct {
	mu    sync.Mutex
	emits []string
	err   error
}

func (f *fakeEmitter) Emit(conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.emits = append(f.emits, conversationID)
	return nil
}

// fixedOpen is an OpenTracker with a constant answer.
type fixedOpen string

func (f fixedOpen) OpenConversation() string { return string(f) }

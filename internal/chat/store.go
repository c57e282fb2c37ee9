// Package chat implements the locally-synchronized view of the current
// user's conversations: the store, the participant resolver, the unread
// reconciler, the thread controller and the inbox orchestration.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// Store errors.
var (
	ErrConversationUnknown = errors.New("conversation not in store")
	ErrNoCurrentUser       = errors.New("current user id required")
)

// ConversationSource lists conversation summaries for a client.
type ConversationSource interface {
	ListConversations(ctx context.Context, clientID string) ([]models.Conversation, error)
}

// Patch describes an in-place partial update of a store entry. Nil fields are
// left untouched.
type Patch struct {
	DisplayTitle *string
	UnreadCount  *int
	Last         *models.LastMessage
}

// Store holds the in-memory conversation list for the current user. It is the
// single source of truth for unread counters and display titles. Entries are
// mutated in place and never removed.
type Store struct {
	selfID string
	source ConversationSource
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*models.Conversation
	order   []string
}

// NewStore creates a conversation store for the given user.
func NewStore(selfID string, source ConversationSource) (*Store, error) {
	if selfID == "" {
		return nil, ErrNoCurrentUser
	}
	return &Store{
		selfID:  selfID,
		source:  source,
		logger:  logging.Component("store"),
		entries: make(map[string]*models.Conversation),
	}, nil
}

// SelfID returns the current user's id.
func (s *Store) SelfID() string { return s.selfID }

// Load fetches the conversation list and merges it into the store. New
// entries get their initial display title from the fallback chain; existing
// entries keep a resolved title and never lose unread counts to a stale
// summary (only mark-read decreases them).
func (s *Store) Load(ctx context.Context) ([]models.Conversation, error) {
	fetched, err := s.source.ListConversations(ctx, s.selfID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	seen := make(map[string]bool, len(fetched))
	for i := range fetched {
		conv := fetched[i]
		seen[conv.ID] = true
		s.order = append(s.order, conv.ID)

		existing, ok := s.entries[conv.ID]
		if !ok {
			conv.DisplayTitle = initialTitle(&conv, s.selfID)
			entry := conv
			s.entries[conv.ID] = &entry
			continue
		}

		// Merge in place: the summary wins for the preview, loses to a
		// resolved title and to a higher local unread count.
		existing.Participants = conv.Participants
		existing.RelatedListingID = conv.RelatedListingID
		existing.RelatedListingType = conv.RelatedListingType
		existing.Last = conv.Last
		if conv.UnreadCount > existing.UnreadCount {
			existing.UnreadCount = conv.UnreadCount
		}
		if IsPlaceholder(existing.DisplayTitle) {
			existing.DisplayTitle = initialTitle(&conv, s.selfID)
		}
	}

	// Entries absent from this summary stay in the store; hidden, not
	// removed, is the rule everywhere client-side.
	for id := range s.entries {
		if !seen[id] {
			s.order = append(s.order, id)
		}
	}

	return s.snapshotLocked(), nil
}

// Apply applies a partial update to one entry.
func (s *Store) Apply(id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrConversationUnknown
	}
	if patch.DisplayTitle != nil {
		entry.DisplayTitle = *patch.DisplayTitle
	}
	if patch.UnreadCount != nil && *patch.UnreadCount >= 0 {
		entry.UnreadCount = *patch.UnreadCount
	}
	if patch.Last != nil {
		entry.Last = *patch.Last
	}
	return nil
}

// MarkReadLocally zeroes the unread counter and optimistically appends the
// current user to the last message's read-acknowledgement set, before the
// backend confirms.
func (s *Store) MarkReadLocally(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrConversationUnknown
	}
	entry.UnreadCount = 0
	for _, r := range entry.Last.ReadBy {
		if r == s.selfID {
			return nil
		}
	}
	entry.Last.ReadBy = append(entry.Last.ReadBy, s.selfID)
	return nil
}

// IncrementUnread bumps a conversation's unread counter by one. Used for the
// optimistic bump on a received cross-instance signal.
func (s *Store) IncrementUnread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrConversationUnknown
	}
	entry.UnreadCount++
	return nil
}

// Get returns a copy of one entry.
func (s *Store) Get(id string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return models.Conversation{}, false
	}
	return *entry, true
}

// List returns a copy of all entries in summary order.
func (s *Store) List() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []models.Conversation {
	out := make([]models.Conversation, 0, len(s.order))
	for _, id := range s.order {
		if entry, ok := s.entries[id]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

// ApplyReconciled writes reconciled unread counts and upgraded titles back
// into the store. Entries not present are ignored.
func (s *Store) ApplyReconciled(conversations []models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range conversations {
		conv := &conversations[i]
		entry, ok := s.entries[conv.ID]
		if !ok {
			continue
		}
		if conv.UnreadCount > entry.UnreadCount {
			entry.UnreadCount = conv.UnreadCount
		}
		if IsPlaceholder(entry.DisplayTitle) && !IsPlaceholder(conv.DisplayTitle) {
			entry.DisplayTitle = conv.DisplayTitle
		}
	}
}

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// Thread controller errors.
var (
	ErrNoOpenConversation = errors.New("no conversation open")
	ErrEmptyMessage       = errors.New("message text required")
	ErrSendFailed         = errors.New("message not delivered")
)

// ThreadBackend is the slice of the API the thread controller needs.
type ThreadBackend interface {
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID, body string) (models.Message, error)
	MarkRead(ctx context.Context, conversationID, clientID string) error
}

// MessageCache persists fetched threads locally. Optional.
type MessageCache interface {
	Thread(ctx context.Context, conversationID string) ([]models.Message, error)
	SaveThread(ctx context.Context, conversationID string, messages []models.Message) error
}

// Emitter broadcasts a conversation-changed signal. Optional.
type Emitter interface {
	Emit(conversationID string) error
}

// Thread loads and sends messages for the active conversation. One controller
// serves one open conversation at a time; Close stops it from applying
// results of callbacks still in flight.
type Thread struct {
	backend ThreadBackend
	store   *Store
	cache   MessageCache
	emitter Emitter
	logger  zerolog.Logger

	mu             sync.Mutex
	conversationID string
	messages       []models.Message
	alive          bool
}

// NewThread creates a thread controller. cache and emitter may be nil.
func NewThread(backend ThreadBackend, store *Store, cache MessageCache, emitter Emitter) *Thread {
	return &Thread{
		backend: backend,
		store:   store,
		cache:   cache,
		emitter: emitter,
		logger:  logging.Component("thread"),
	}
}

// Open selects a conversation: marks it read locally and on the backend
// (best-effort), loads any cached copy, then fetches the history and
// annotates each message with its sender side and read state.
func (t *Thread) Open(ctx context.Context, conversationID string) ([]models.Message, error) {
	t.mu.Lock()
	t.conversationID = conversationID
	t.alive = true
	t.messages = nil
	t.mu.Unlock()

	if err := t.store.MarkReadLocally(conversationID); err != nil {
		t.logger.Debug().Err(err).Str("conversation_id", conversationID).Msg("local mark-read skipped")
	}
	if err := t.backend.MarkRead(ctx, conversationID, t.store.SelfID()); err != nil {
		// Best-effort; the next reconciliation pass absorbs the miss.
		t.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("backend mark-read failed")
	}

	if t.cache != nil {
		if cached, err := t.cache.Thread(ctx, conversationID); err == nil && len(cached) > 0 {
			t.applyHistory(conversationID, cached)
		}
	}

	history, err := t.backend.ListMessages(ctx, conversationID)
	if err != nil {
		// A cached copy, if any, keeps the view usable.
		t.mu.Lock()
		cached := t.snapshotLocked()
		t.mu.Unlock()
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, err
	}

	if !t.applyHistory(conversationID, history) {
		return nil, ErrNoOpenConversation
	}
	if t.cache != nil {
		if err := t.cache.SaveThread(ctx, conversationID, history); err != nil {
			t.logger.Debug().Err(err).Msg("thread cache write failed")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(), nil
}

// applyHistory installs fetched messages if the conversation is still the
// open one. Returns false when the controller moved on or closed.
func (t *Thread) applyHistory(conversationID string, history []models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.alive || t.conversationID != conversationID {
		return false
	}
	t.messages = make([]models.Message, len(history))
	copy(t.messages, history)
	for i := range t.messages {
		t.annotateLocked(&t.messages[i])
	}
	return true
}

// annotateLocked computes the sender side by id comparison — the payload's
// own "is mine" flag is unreliable when staff accounts join a thread — and
// the read-by-other flag from the acknowledgement set.
func (t *Thread) annotateLocked(msg *models.Message) {
	if msg.SenderID == t.store.SelfID() {
		msg.Side = models.SenderYou
	} else {
		msg.Side = models.SenderThem
	}
	if conv, ok := t.store.Get(t.conversationID); ok {
		msg.ReadByOther = msg.ReadByParticipant(conv.OtherParticipantID(t.store.SelfID()))
	}
}

// Send appends an optimistic local message, updates the conversation preview,
// then delivers it. The optimistic entry is never retracted on failure;
// resending is the expected recovery.
func (t *Thread) Send(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}
	if t.store.SelfID() == "" {
		return models.Message{}, ErrNoCurrentUser
	}

	t.mu.Lock()
	if !t.alive || t.conversationID == "" {
		t.mu.Unlock()
		return models.Message{}, ErrNoOpenConversation
	}
	conversationID := t.conversationID

	optimistic := models.Message{
		ID:             "local-" + uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       t.store.SelfID(),
		Body:           text,
		Timestamp:      time.Now().UTC(),
		Moderation:     models.ModerationStateActive,
		ReadBy:         []string{t.store.SelfID()},
		Side:           models.SenderYou,
		Pending:        true,
	}
	t.messages = append(t.messages, optimistic)
	localID := optimistic.ID
	t.mu.Unlock()

	last := models.LastMessage{
		Body:      optimistic.Body,
		SenderID:  optimistic.SenderID,
		Timestamp: optimistic.Timestamp,
		ReadBy:    []string{t.store.SelfID()},
	}
	if err := t.store.Apply(conversationID, Patch{Last: &last}); err != nil {
		t.logger.Debug().Err(err).Msg("preview update skipped")
	}

	echo, err := t.backend.SendMessage(ctx, conversationID, t.store.SelfID(), text)
	if err != nil {
		t.logger.Error().Err(err).
			Str("conversation_id", conversationID).
			Str("body", logging.BodyPreview(text)).
			Msg("send failed, optimistic entry kept")
		return optimistic, errors.Join(ErrSendFailed, err)
	}

	confirmed := t.confirm(conversationID, localID, echo)

	if t.emitter != nil {
		if err := t.emitter.Emit(conversationID); err != nil {
			t.logger.Warn().Err(err).Msg("broadcast emit failed")
		}
	}
	return confirmed, nil
}

// confirm replaces the optimistic entry with the server echo, in place, so
// send order is preserved regardless of network latency.
func (t *Thread) confirm(conversationID, localID string, echo models.Message) models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	echo.Pending = false
	if echo.ConversationID == "" {
		echo.ConversationID = conversationID
	}
	t.annotateLocked(&echo)

	if !t.alive || t.conversationID != conversationID {
		return echo
	}
	for i := range t.messages {
		if t.messages[i].ID == localID {
			t.messages[i] = echo
			return echo
		}
	}
	t.messages = append(t.messages, echo)
	return echo
}

// Messages returns a copy of the current thread.
func (t *Thread) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// ConversationID returns the open conversation id, or "".
func (t *Thread) ConversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.alive {
		return ""
	}
	return t.conversationID
}

// Close stops the controller. Callbacks still in flight run to completion but
// their results are discarded.
func (t *Thread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alive = false
	t.conversationID = ""
	t.messages = nil
}

func (t *Thread) snapshotLocked() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

const (
	defaultRefreshDelay     = 400 * time.Millisecond
	defaultNotificationSize = 100
)

// NotificationSource lists the activity feed for a client.
type NotificationSource interface {
	ListNotifications(ctx context.Context, clientID string, limit int) ([]models.Notification, error)
}

// OpenTracker reports which conversation the user currently has open, if any.
type OpenTracker interface {
	OpenConversation() string
}

// Inbox reacts to conversation-changed signals: it applies the optimistic
// unread bump and schedules the debounced full reconciliation refresh. The
// delay is a heuristic against read-after-write races with the backend, not
// a correctness mechanism; a full refresh is idempotent and safe to run
// redundantly.
type Inbox struct {
	store    *Store
	resolver *Resolver
	feed     NotificationSource
	open     OpenTracker
	delay    time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// InboxConfig wires an Inbox. Resolver, Feed and Open may be nil.
type InboxConfig struct {
	Store    *Store
	Resolver *Resolver
	Feed     NotificationSource
	Open     OpenTracker

	// RefreshDelay is the bounded delay before the reconciliation refresh
	// that follows a received signal (default 400ms).
	RefreshDelay time.Duration
}

// NewInbox creates the inbox orchestrator.
func NewInbox(cfg InboxConfig) *Inbox {
	delay := cfg.RefreshDelay
	if delay <= 0 {
		delay = defaultRefreshDelay
	}
	return &Inbox{
		store:    cfg.Store,
		resolver: cfg.Resolver,
		feed:     cfg.Feed,
		open:     cfg.Open,
		delay:    delay,
		logger:   logging.Component("inbox"),
	}
}

// HandleSignal consumes a cross-instance signal. Echo suppression happens in
// the broadcaster; by the time a signal reaches here it came from another
// instance. The open conversation gets no optimistic bump since the user is
// already viewing it.
func (ib *Inbox) HandleSignal(ctx context.Context, sig models.Signal) {
	openID := ""
	if ib.open != nil {
		openID = ib.open.OpenConversation()
	}
	if sig.ConversationID != "" && sig.ConversationID != openID {
		if err := ib.store.IncrementUnread(sig.ConversationID); err != nil {
			ib.logger.Debug().Err(err).Str("conversation_id", sig.ConversationID).Msg("optimistic bump skipped")
		}
	}
	ib.scheduleRefresh(ctx)
}

// scheduleRefresh arms (or re-arms) the debounced refresh.
func (ib *Inbox) scheduleRefresh(ctx context.Context) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return
	}
	if ib.timer != nil {
		ib.timer.Stop()
	}
	ib.timer = time.AfterFunc(ib.delay, func() {
		if err := ib.Refresh(ctx); err != nil {
			ib.logger.Warn().Err(err).Msg("scheduled refresh failed")
		}
	})
}

// Refresh runs one full pass: reload the conversation list, reconcile unread
// counts against the notification feed, and re-run title resolution.
func (ib *Inbox) Refresh(ctx context.Context) error {
	conversations, err := ib.store.Load(ctx)
	if err != nil {
		return err
	}

	if ib.feed != nil {
		notifications, err := ib.feed.ListNotifications(ctx, ib.store.SelfID(), defaultNotificationSize)
		if err != nil {
			// Secondary signal source; the summary counts stand on their own.
			ib.logger.Debug().Err(err).Msg("notification fetch failed, skipping reconciliation")
		} else {
			ib.store.ApplyReconciled(ReconcileUnread(conversations, notifications))
		}
	}

	if ib.resolver != nil {
		ib.resolver.ResolveAll(ctx)
	}
	return nil
}

// Close stops any pending scheduled refresh.
func (ib *Inbox) Close() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	ib.closed = true
	if ib.timer != nil {
		ib.timer.Stop()
		ib.timer = nil
	}
}

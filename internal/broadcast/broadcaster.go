package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// ErrAlreadyStarted is returned by Start on a running broadcaster.
var ErrAlreadyStarted = errors.New("broadcaster already started")

// Config wires a Broadcaster.
type Config struct {
	// SignalPath is the shared file every instance of the session watches.
	SignalPath string

	// OriginID identifies this instance. Defaults to a random UUID. Passed
	// in explicitly so tests can run without ambient globals.
	OriginID string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Broadcaster writes conversation-changed signals to a shared file and
// watches it for signals from other instances. The file is a single-key
// last-write-wins store: consumers treat every signal as "something changed,
// go re-fetch", never as authoritative payload.
//
// Local subscribers see every emit of this instance synchronously. Remote
// subscribers see only signals whose origin differs from this instance's id;
// the echo of our own write is suppressed.
type Broadcaster struct {
	path     string
	originID string
	now      func() time.Time
	logger   zerolog.Logger

	local  *publisher
	remote *publisher

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a broadcaster for the given signal file.
func New(cfg Config) (*Broadcaster, error) {
	if cfg.SignalPath == "" {
		return nil, fmt.Errorf("signal path required")
	}
	originID := cfg.OriginID
	if originID == "" {
		originID = uuid.NewString()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Broadcaster{
		path:     cfg.SignalPath,
		originID: originID,
		now:      now,
		logger:   logging.Component("broadcast").With().Str("origin_id", originID).Logger(),
		local:    newPublisher(),
		remote:   newPublisher(),
	}, nil
}

// OriginID returns this instance's id.
func (b *Broadcaster) OriginID() string { return b.originID }

// Emit publishes a conversation-changed signal: the shared file is
// overwritten for other instances, and local subscribers are notified
// synchronously so components in this instance can react at once.
func (b *Broadcaster) Emit(conversationID string) error {
	sig := models.Signal{
		ConversationID: conversationID,
		Timestamp:      b.now(),
		OriginID:       b.originID,
	}

	if err := b.writeSignal(sig); err != nil {
		return err
	}
	b.local.publish(sig)
	return nil
}

// writeSignal overwrites the signal file atomically (write + rename), so a
// concurrent reader never sees a torn record.
func (b *Broadcaster) writeSignal(sig models.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure signal dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".signal-*")
	if err != nil {
		return fmt.Errorf("stage signal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage signal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("stage signal: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}

// Subscribe registers a handler for signals from other instances. Signals
// originated by this instance are never delivered here.
func (b *Broadcaster) Subscribe(id string, handler Handler) error {
	return b.remote.subscribe(id, handler)
}

// Unsubscribe removes a remote subscription.
func (b *Broadcaster) Unsubscribe(id string) error {
	return b.remote.unsubscribe(id)
}

// SubscribeLocal registers a handler for this instance's own emits, delivered
// synchronously from Emit.
func (b *Broadcaster) SubscribeLocal(id string, handler Handler) error {
	return b.local.subscribe(id, handler)
}

// UnsubscribeLocal removes a local subscription.
func (b *Broadcaster) UnsubscribeLocal(id string) error {
	return b.local.unsubscribe(id)
}

// Start begins watching the signal file's directory. Watching the directory
// rather than the file survives the atomic rename on every write.
func (b *Broadcaster) Start(ctx context.Context) error {
	if b.watcher != nil {
		return ErrAlreadyStarted
	}
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure signal dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.watcher = watcher
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(runCtx)
	return nil
}

func (b *Broadcaster) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if event.Name != b.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			b.consume()
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// consume reads the current signal and dispatches it unless it is our own
// echo.
func (b *Broadcaster) consume() {
	data, err := os.ReadFile(b.path)
	if err != nil {
		b.logger.Debug().Err(err).Msg("signal read failed")
		return
	}
	var sig models.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		b.logger.Debug().Err(err).Msg("signal decode failed")
		return
	}
	if sig.OriginID == b.originID {
		// Our own write looping back through the filesystem.
		return
	}
	b.logger.Debug().
		Str("conversation_id", sig.ConversationID).
		Str("from", sig.OriginID).
		Msg("signal received")
	b.remote.publish(sig)
}

// Close stops the watcher and releases resources.
func (b *Broadcaster) Close() error {
	if b.watcher == nil {
		return nil
	}
	b.cancel()
	err := b.watcher.Close()
	<-b.done
	b.watcher = nil
	return err
}

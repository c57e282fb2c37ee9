package broadcast

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	signals []models.Signal
}

func (r *recorder) handle(sig models.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signals)
}

func (r *recorder) last() (models.Signal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.signals) == 0 {
		return models.Signal{}, false
	}
	return r.signals[len(r.signals)-1], true
}

func newStarted(t *testing.T, path, origin string) *Broadcaster {
	t.Helper()
	b, err := New(Config{SignalPath: path, OriginID: origin})
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewGeneratesOriginID(t *testing.T) {
	b, err := New(Config{SignalPath: filepath.Join(t.TempDir(), "sig.json")})
	require.NoError(t, err)
	require.NotEmpty(t, b.OriginID())
}

func TestCrossInstanceDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.json")
	a := newStarted(t, path, "tab-a")
	bInst := newStarted(t, path, "tab-b")

	received := &recorder{}
	require.NoError(t, bInst.Subscribe("test", received.handle))

	require.NoError(t, a.Emit("c1"))

	require.Eventually(t, func() bool { return received.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	sig, ok := received.last()
	require.True(t, ok)
	require.Equal(t, "c1", sig.ConversationID)
	require.Equal(t, "tab-a", sig.OriginID)
}

func TestEchoSuppression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.json")
	a := newStarted(t, path, "tab-a")

	echoes := &recorder{}
	require.NoError(t, a.Subscribe("test", echoes.handle))

	require.NoError(t, a.Emit("c1"))

	// Give the filesystem event time to loop back; the subscriber must stay
	// silent for our own write.
	time.Sleep(300 * time.Millisecond)
	require.Zero(t, echoes.count(), "a tab must never react to its own broadcast")
}

func TestLocalSubscriberSeesOwnEmitSynchronously(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.json")
	a, err := New(Config{SignalPath: path, OriginID: "tab-a"})
	require.NoError(t, err)

	local := &recorder{}
	require.NoError(t, a.SubscribeLocal("inbox", local.handle))

	require.NoError(t, a.Emit("c1"))
	require.Equal(t, 1, local.count(), "local delivery happens inside Emit, no watcher needed")
}

func TestSubscriptionLifecycle(t *testing.T) {
	b, err := New(Config{SignalPath: filepath.Join(t.TempDir(), "sig.json"), OriginID: "tab-a"})
	require.NoError(t, err)

	require.ErrorIs(t, b.Subscribe("", func(models.Signal) {}), ErrInvalidSubscriptionID)
	require.ErrorIs(t, b.Subscribe("x", nil), ErrNilHandler)
	require.NoError(t, b.Subscribe("x", func(models.Signal) {}))
	require.ErrorIs(t, b.Subscribe("x", func(models.Signal) {}), ErrSubscriptionExists)
	require.NoError(t, b.Unsubscribe("x"))
	require.ErrorIs(t, b.Unsubscribe("x"), ErrSubscriptionNotFound)
}

func TestLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.json")
	a := newStarted(t, path, "tab-a")
	bInst := newStarted(t, path, "tab-b")

	received := &recorder{}
	require.NoError(t, bInst.Subscribe("test", received.handle))

	// Rapid overwrites: delivery is at-least-one-signal, not ordered or
	// complete; the final state must name the last conversation.
	require.NoError(t, a.Emit("c1"))
	require.NoError(t, a.Emit("c2"))
	require.NoError(t, a.Emit("c3"))

	require.Eventually(t, func() bool {
		sig, ok := received.last()
		return ok && sig.ConversationID == "c3"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broadcast.json")
	b := newStarted(t, path, "tab-a")
	require.ErrorIs(t, b.Start(context.Background()), ErrAlreadyStarted)
}

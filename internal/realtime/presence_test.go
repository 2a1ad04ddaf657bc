package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhagyashreemodi/emergency-connect/internal/testutil"
)

const testDebounce = 30 * time.Millisecond

type presenceWrite struct {
	Username string
	Online   bool
}

// recordingStore captures online-flag writes. The offline write arrives
// from the debounce timer's goroutine, hence the mutex.
type recordingStore struct {
	mu     sync.Mutex
	writes []presenceWrite
	err    error
}

func (s *recordingStore) SetOnlineStatus(_ context.Context, username string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, presenceWrite{Username: username, Online: online})
	return s.err
}

func (s *recordingStore) all() []presenceWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]presenceWrite(nil), s.writes...)
}

func newTestCoordinator(store *recordingStore) (*PresenceCoordinator, *ConnectionRegistry, *recordingSender) {
	registry := NewConnectionRegistry()
	sender := &recordingSender{}
	broadcaster := NewBroadcaster(registry, sender)
	coordinator := NewPresenceCoordinator(registry, store, broadcaster, testDebounce, testutil.MakeNoopLogger())
	return coordinator, registry, sender
}

func TestPresence_FirstConnectionComesOnline(t *testing.T) {
	store := &recordingStore{}
	coordinator, registry, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")

	require.Equal(t, []presenceWrite{{Username: "alice", Online: true}}, store.all())
	broadcasts := sender.broadcasts()
	require.Len(t, broadcasts, 1)
	assert.Equal(t, EventUserOnline, broadcasts[0].Event)
	assert.Equal(t, "alice", broadcasts[0].Payload)
	assert.True(t, registry.HasAnyConnection("alice"))
}

func TestPresence_SecondConnectionIsSilent(t *testing.T) {
	store := &recordingStore{}
	coordinator, _, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")
	coordinator.HandleConnect(ctx, "alice", "sock-2")

	assert.Len(t, store.all(), 1, "online flag should be persisted once")
	assert.Len(t, sender.broadcasts(), 1, "only the initial online broadcast")
}

// A close followed by a reconnect within the debounce window (tab
// refresh) must not flip the user offline, and must not re-announce
// them as online.
func TestPresence_DebounceSuppressesTransientReconnect(t *testing.T) {
	store := &recordingStore{}
	coordinator, registry, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")
	coordinator.HandleDisconnect(ctx, "alice", "sock-1")
	coordinator.HandleConnect(ctx, "alice", "sock-2")

	// Wait long enough that a pending-offline timer would have fired
	time.Sleep(3 * testDebounce)

	assert.Equal(t, []presenceWrite{{Username: "alice", Online: true}}, store.all())
	broadcasts := sender.broadcasts()
	require.Len(t, broadcasts, 1)
	assert.Equal(t, EventUserOnline, broadcasts[0].Event)
	assert.True(t, registry.HasAnyConnection("alice"))
}

// Closing one of two tabs must not change presence; only closing both,
// with no reconnect during the debounce, transitions the user offline.
func TestPresence_MultiConnectionLifecycle(t *testing.T) {
	store := &recordingStore{}
	coordinator, registry, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")
	coordinator.HandleConnect(ctx, "alice", "sock-2")

	// Closing one connection is not a state change
	coordinator.HandleDisconnect(ctx, "alice", "sock-1")
	time.Sleep(3 * testDebounce)
	assert.Len(t, store.all(), 1)
	assert.Len(t, sender.broadcasts(), 1)
	assert.True(t, registry.HasAnyConnection("alice"))

	// Closing the last connection starts the debounce
	coordinator.HandleDisconnect(ctx, "alice", "sock-2")

	require.Eventually(t, func() bool {
		return len(store.all()) == 2
	}, time.Second, 5*time.Millisecond, "offline flag should be persisted after the debounce")

	assert.Equal(t, presenceWrite{Username: "alice", Online: false}, store.all()[1])

	broadcasts := sender.broadcasts()
	require.Len(t, broadcasts, 2)
	assert.Equal(t, EventUserOffline, broadcasts[1].Event)
	assert.Equal(t, "alice", broadcasts[1].Payload)

	// The registry entry is dropped once the transition commits
	assert.False(t, registry.HasAnyConnection("alice"))
	assert.Empty(t, registry.ConnectionsFor("alice"))
}

func TestPresence_OfflineBroadcastFiresExactlyOnce(t *testing.T) {
	store := &recordingStore{}
	coordinator, _, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")
	coordinator.HandleDisconnect(ctx, "alice", "sock-1")

	time.Sleep(4 * testDebounce)

	offline := 0
	for _, ev := range sender.broadcasts() {
		if ev.Event == EventUserOffline {
			offline++
		}
	}
	assert.Equal(t, 1, offline)
}

// A connection the transport could not attribute to a user must not
// affect presence at all.
func TestPresence_AnonymousConnectionIgnored(t *testing.T) {
	store := &recordingStore{}
	coordinator, _, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "", "sock-1")
	coordinator.HandleDisconnect(ctx, "", "sock-1")
	time.Sleep(2 * testDebounce)

	assert.Empty(t, store.all())
	assert.Empty(t, sender.broadcasts())
}

// A disconnect for a user that was never registered must not schedule an
// offline transition: nothing is persisted and nothing is broadcast.
func TestPresence_DisconnectForUnknownUserIsNoOp(t *testing.T) {
	store := &recordingStore{}
	coordinator, registry, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleDisconnect(ctx, "ghost", "sock-404")
	time.Sleep(3 * testDebounce)

	assert.Empty(t, store.all())
	assert.Empty(t, sender.broadcasts())
	assert.False(t, registry.HasAnyConnection("ghost"))
}

// A duplicate disconnect arriving after the offline transition committed
// must not restart the cycle and announce the user offline again.
func TestPresence_StaleDisconnectAfterOfflineIsNoOp(t *testing.T) {
	store := &recordingStore{}
	coordinator, _, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")
	coordinator.HandleDisconnect(ctx, "alice", "sock-1")

	require.Eventually(t, func() bool {
		return len(store.all()) == 2
	}, time.Second, 5*time.Millisecond, "offline transition commits")

	coordinator.HandleDisconnect(ctx, "alice", "sock-1")
	time.Sleep(3 * testDebounce)

	assert.Len(t, store.all(), 2)

	offline := 0
	for _, ev := range sender.broadcasts() {
		if ev.Event == EventUserOffline {
			offline++
		}
	}
	assert.Equal(t, 1, offline)
}

// Persistence is best-effort: a failing store must not stop the state
// machine or the broadcast.
func TestPresence_PersistFailureStillBroadcasts(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}
	coordinator, registry, sender := newTestCoordinator(store)
	ctx := context.Background()

	coordinator.HandleConnect(ctx, "alice", "sock-1")

	assert.Len(t, sender.broadcasts(), 1)
	assert.True(t, registry.HasAnyConnection("alice"))

	coordinator.HandleDisconnect(ctx, "alice", "sock-1")
	require.Eventually(t, func() bool {
		return len(sender.broadcasts()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, EventUserOffline, sender.broadcasts()[1].Event)
}

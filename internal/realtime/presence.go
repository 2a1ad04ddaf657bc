package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
)

// PresenceStore persists the online flag on the user record. Write
// failures are logged and absorbed; the in-memory state machine is
// authoritative for behavior.
type PresenceStore interface {
	SetOnlineStatus(ctx context.Context, username string, online bool) error
}

// PresenceCoordinator owns the per-user online/offline state machine.
//
// A user is Online from their first connection until a short debounce
// window after their last connection closes. The debounce absorbs tab
// refreshes and duplicated tabs: closing one of two tabs never flips the
// user offline, and a reconnect within the window cancels the pending
// transition without re-announcing the user as online.
type PresenceCoordinator struct {
	registry *ConnectionRegistry
	store    PresenceStore
	events   *Broadcaster
	debounce time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewPresenceCoordinator(
	registry *ConnectionRegistry,
	store PresenceStore,
	events *Broadcaster,
	debounce time.Duration,
	l *logger.Logger,
) *PresenceCoordinator {
	return &PresenceCoordinator{
		registry: registry,
		store:    store,
		events:   events,
		debounce: debounce,
		logger:   l,
		pending:  make(map[string]*time.Timer),
	}
}

// HandleConnect processes a connection-opened event. An empty username
// means the transport could not attribute the connection; the event is
// ignored.
func (c *PresenceCoordinator) HandleConnect(ctx context.Context, username, connID string) {
	if username == "" {
		return
	}

	c.mu.Lock()
	// Prior state is Offline only when there are no live connections AND
	// no pending-offline timer; during the debounce window the user is
	// still Online from observers' perspective.
	_, wasPending := c.pending[username]
	cameOnline := !wasPending && !c.registry.HasAnyConnection(username)

	c.registry.AddConnection(username, connID)
	if wasPending {
		c.pending[username].Stop()
		delete(c.pending, username)
	}
	c.mu.Unlock()

	c.logger.Info("connection opened", "username", username, "conn_id", connID,
		"connections", len(c.registry.ConnectionsFor(username)))

	if !cameOnline {
		return
	}

	if err := c.store.SetOnlineStatus(ctx, username, true); err != nil {
		c.logger.Error("failed to persist online status", "username", username, "error", err)
	}
	c.events.BroadcastAll(EventUserOnline, username)
}

// HandleDisconnect processes a connection-closed event. If the user's
// last connection just closed, the offline transition is scheduled after
// the debounce window rather than taken immediately.
func (c *PresenceCoordinator) HandleDisconnect(ctx context.Context, username, connID string) {
	if username == "" {
		return
	}

	c.mu.Lock()
	// A disconnect for a user with no entry is stale or duplicated: they
	// never connected, or their offline transition already committed.
	// Scheduling a timer here would later announce a spurious offline.
	if !c.registry.IsTracked(username) {
		c.mu.Unlock()
		c.logger.Debug("ignoring disconnect for untracked user", "username", username, "conn_id", connID)
		return
	}
	c.registry.RemoveConnection(username, connID)
	if !c.registry.HasAnyConnection(username) {
		if timer, ok := c.pending[username]; ok {
			timer.Stop()
		}
		c.pending[username] = time.AfterFunc(c.debounce, func() {
			c.confirmOffline(username)
		})
	}
	c.mu.Unlock()

	c.logger.Info("connection closed", "username", username, "conn_id", connID,
		"connections", len(c.registry.ConnectionsFor(username)))
}

// confirmOffline runs when a pending-offline timer fires. The state is
// re-checked under the lock: the timer may have lost a race with a
// reconnect that already cancelled it.
func (c *PresenceCoordinator) confirmOffline(username string) {
	c.mu.Lock()
	if _, ok := c.pending[username]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.pending, username)
	if c.registry.HasAnyConnection(username) {
		c.mu.Unlock()
		return
	}
	c.registry.Forget(username)
	c.mu.Unlock()

	if err := c.store.SetOnlineStatus(context.Background(), username, false); err != nil {
		c.logger.Error("failed to persist offline status", "username", username, "error", err)
	}
	c.logger.Info("user went offline", "username", username)
	c.events.BroadcastAll(EventUserOffline, username)
}

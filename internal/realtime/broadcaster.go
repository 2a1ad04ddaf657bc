package realtime

// Event names pushed to clients. These are the observable contract with
// the front end; changing one breaks connected browsers.
const (
	EventUserOnline       = "user-online"
	EventUserOffline      = "user-offline"
	EventNewTaskCreated   = "new-task-created"
	EventPublicMessage    = "public-message"
	EventPrivateMessage   = "private-message"
	EventPostAnnouncement = "post-announcement"
)

// Sender is the transport half of event delivery: it pushes a named event
// with a JSON-serializable payload to one connection, or to every open
// connection. Delivery is fire-and-forget; sends to stale or slow
// connections are dropped by the transport.
type Sender interface {
	Send(connID, event string, payload any)
	SendAll(event string, payload any)
}

// Broadcaster resolves audiences (a user, a set of users, everyone)
// to connection IDs via the registry and hands delivery to the Sender.
type Broadcaster struct {
	registry *ConnectionRegistry
	sender   Sender
}

func NewBroadcaster(registry *ConnectionRegistry, sender Sender) *Broadcaster {
	return &Broadcaster{registry: registry, sender: sender}
}

// BroadcastAll delivers to every currently open connection, regardless
// of user.
func (b *Broadcaster) BroadcastAll(event string, payload any) {
	b.sender.SendAll(event, payload)
}

// BroadcastToUser delivers to every connection the user currently has
// open, so a sender's other tabs see their own message too. No-op for
// users with no live connection.
func (b *Broadcaster) BroadcastToUser(username, event string, payload any) {
	for _, connID := range b.registry.ConnectionsFor(username) {
		b.sender.Send(connID, event, payload)
	}
}

// BroadcastToUsers delivers to the union of the users' connections,
// at most once per connection.
func (b *Broadcaster) BroadcastToUsers(usernames []string, event string, payload any) {
	seen := make(map[string]struct{})
	for _, username := range usernames {
		for _, connID := range b.registry.ConnectionsFor(username) {
			if _, ok := seen[connID]; ok {
				continue
			}
			seen[connID] = struct{}{}
			b.sender.Send(connID, event, payload)
		}
	}
}

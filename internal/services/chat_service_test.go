package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
	"github.com/bhagyashreemodi/emergency-connect/internal/testutil"
)

type fakeMessageRepo struct {
	messages []*models.Message
}

func (f *fakeMessageRepo) Create(_ context.Context, message *models.Message) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) ListPublic(context.Context) ([]*models.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) ListPrivate(context.Context, string, string) ([]*models.Message, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) ListAnnouncements(context.Context) ([]*models.Message, error) {
	return f.messages, nil
}

func newTestChatService(users *fakeUserRepo) (*ChatService, *fakeMessageRepo, *realtime.ConnectionRegistry, *fakePushSender) {
	messages := &fakeMessageRepo{}
	registry := realtime.NewConnectionRegistry()
	sender := &fakePushSender{}
	broadcaster := realtime.NewBroadcaster(registry, sender)
	chat := NewChatService(messages, users, broadcaster, testutil.MakeNoopLogger())
	return chat, messages, registry, sender
}

func seedUser(users *fakeUserRepo, username, status string) {
	users.users[username] = &models.User{Username: username, Status: status, IsActive: true}
}

func TestChatService_PublicMessageIsPersistedAndBroadcastToAll(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "alice", "OK")
	chat, messages, _, sender := newTestChatService(users)

	message, err := chat.SendPublicMessage(context.Background(), "alice", "hello everyone")

	require.NoError(t, err)
	require.Len(t, messages.messages, 1)
	assert.Equal(t, models.MessagePublic, message.Type)
	assert.Equal(t, "OK", message.SenderStatus)

	require.Len(t, sender.alls, 1)
	assert.Equal(t, realtime.EventPublicMessage, sender.alls[0].Event)
	assert.Equal(t, message, sender.alls[0].Payload)
}

// A private message goes to the recipient's connections and is echoed to
// the sender's other connections, but nowhere else.
func TestChatService_PrivateMessageScopedToSenderAndRecipient(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "alice", "OK")
	seedUser(users, "bob", "Help")
	seedUser(users, "carol", "OK")
	chat, _, registry, sender := newTestChatService(users)

	registry.AddConnection("alice", "sock-1")
	registry.AddConnection("alice", "sock-2")
	registry.AddConnection("bob", "sock-3")
	registry.AddConnection("carol", "sock-4")

	message, err := chat.SendPrivateMessage(context.Background(), "alice", "bob", "you ok?")

	require.NoError(t, err)
	assert.Equal(t, models.MessagePrivate, message.Type)
	assert.Equal(t, "bob", message.Receiver)

	require.Len(t, sender.sends, 3)
	var connIDs []string
	for _, push := range sender.sends {
		assert.Equal(t, realtime.EventPrivateMessage, push.Event)
		connIDs = append(connIDs, push.ConnID)
	}
	assert.ElementsMatch(t, []string{"sock-1", "sock-2", "sock-3"}, connIDs)
}

func TestChatService_AnnouncementIsPersistedAndBroadcastToAll(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "alice", "OK")
	chat, messages, _, sender := newTestChatService(users)

	announcement, err := chat.PostAnnouncement(context.Background(), "alice", "shelter open at city hall")

	require.NoError(t, err)
	require.Len(t, messages.messages, 1)
	assert.Equal(t, models.MessageAnnouncement, announcement.Type)
	assert.Equal(t, "alice", announcement.Sender)

	require.Len(t, sender.alls, 1)
	assert.Equal(t, realtime.EventPostAnnouncement, sender.alls[0].Event)
	assert.Equal(t, announcement, sender.alls[0].Payload)
	assert.Empty(t, sender.sends, "announcements are not scoped to connections")
}

func TestChatService_PrivateMessageToUnknownRecipientFails(t *testing.T) {
	users := newFakeUserRepo()
	seedUser(users, "alice", "OK")
	chat, messages, _, sender := newTestChatService(users)

	_, err := chat.SendPrivateMessage(context.Background(), "alice", "ghost", "hello?")

	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.Empty(t, messages.messages)
	assert.Empty(t, sender.sends)
}

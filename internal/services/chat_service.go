package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bhagyashreemodi/emergency-connect/internal/logger"
	"github.com/bhagyashreemodi/emergency-connect/internal/models"
	"github.com/bhagyashreemodi/emergency-connect/internal/realtime"
	"github.com/bhagyashreemodi/emergency-connect/internal/repositories"
)

var ErrRecipientNotFound = errors.New("recipient not found")

// ChatService persists chat messages and pushes them to live connections
// through the shared broadcaster. History is read from the store, not
// from the live channel; a missed push is not retried.
type ChatService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	events   *realtime.Broadcaster
	logger   *logger.Logger
}

func NewChatService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	events *realtime.Broadcaster,
	l *logger.Logger,
) *ChatService {
	return &ChatService{messages: messages, users: users, events: events, logger: l}
}

func (s *ChatService) SendPublicMessage(ctx context.Context, sender, content string) (*models.Message, error) {
	user, err := s.users.GetByUsername(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}

	message := &models.Message{
		Sender:       user.Username,
		Content:      content,
		Type:         models.MessagePublic,
		SenderStatus: user.Status,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.events.BroadcastAll(realtime.EventPublicMessage, message)
	return message, nil
}

func (s *ChatService) SendPrivateMessage(ctx context.Context, sender, recipient, content string) (*models.Message, error) {
	senderUser, err := s.users.GetByUsername(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}

	recipientUser, err := s.users.GetByUsername(ctx, recipient)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	message := &models.Message{
		Sender:       senderUser.Username,
		Receiver:     recipientUser.Username,
		Content:      content,
		Type:         models.MessagePrivate,
		SenderStatus: senderUser.Status,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// Echo to the sender's own connections too, so another open tab of
	// theirs reflects the message they just sent.
	s.events.BroadcastToUsers([]string{senderUser.Username, recipientUser.Username},
		realtime.EventPrivateMessage, message)
	s.logger.Debug("private message delivered", "sender", senderUser.Username, "recipient", recipientUser.Username)
	return message, nil
}

// PostAnnouncement stores a community-wide announcement and pushes it to
// every live connection, named and anonymous alike.
func (s *ChatService) PostAnnouncement(ctx context.Context, sender, content string) (*models.Message, error) {
	user, err := s.users.GetByUsername(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}

	announcement := &models.Message{
		Sender:       user.Username,
		Content:      content,
		Type:         models.MessageAnnouncement,
		SenderStatus: user.Status,
	}
	if err := s.messages.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to save announcement: %w", err)
	}

	s.events.BroadcastAll(realtime.EventPostAnnouncement, announcement)
	return announcement, nil
}

func (s *ChatService) AnnouncementHistory(ctx context.Context) ([]*models.Message, error) {
	return s.messages.ListAnnouncements(ctx)
}

func (s *ChatService) PublicHistory(ctx context.Context) ([]*models.Message, error) {
	return s.messages.ListPublic(ctx)
}

func (s *ChatService) PrivateHistory(ctx context.Context, username1, username2 string) ([]*models.Message, error) {
	return s.messages.ListPrivate(ctx, username1, username2)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessagePublic       MessageType = "public"
	MessagePrivate      MessageType = "private"
	MessageAnnouncement MessageType = "announcement"
)

type Message struct {
	ID           uuid.UUID   `json:"id"`
	Sender       string      `json:"username"`
	Receiver     string      `json:"receiver,omitempty"`
	Content      string      `json:"message"`
	Type         MessageType `json:"type"`
	SenderStatus string      `json:"status"`
	IsRead       bool        `json:"is_read"`
	Timestamp    time.Time   `json:"timestamp"`
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageKind tags what a queued message carries.
type MessageKind string

const (
	MessageSlip MessageKind = "slip"
	MessageText MessageKind = "text"
)

// MessageStatus is the delivery state of a queued message.
type MessageStatus string

const (
	MessageQueued    MessageStatus = "QUEUED"
	MessageSent      MessageStatus = "SENT"
	MessageCancelled MessageStatus = "CANCELLED"
)

// QueueItem is one scheduled channel message. ShortID is the serial the
// operator uses with /cancel; ID is stable across systems.
type QueueItem struct {
	ID        string
	ShortID   int64
	Kind      MessageKind
	Body      string
	SlipID    int64 // 0 when the message is not tied to a slip
	SendAt    time.Time
	Status    MessageStatus
	Attempts  int
	CreatedAt time.Time
}

// NewQueueItem validates and builds a queue item in QUEUED state.
func NewQueueItem(kind MessageKind, body string, slipID int64, sendAt time.Time) (QueueItem, error) {
	if body == "" {
		return QueueItem{}, fmt.Errorf("queued message needs a body")
	}
	if sendAt.IsZero() {
		return QueueItem{}, fmt.Errorf("queued message needs a send time")
	}
	return QueueItem{
		ID:        uuid.NewString(),
		Kind:      kind,
		Body:      body,
		SlipID:    slipID,
		SendAt:    sendAt.UTC(),
		Status:    MessageQueued,
		CreatedAt: time.Now().UTC(),
	}, nil
}

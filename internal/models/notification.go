package models

import "time"

// NotificationType categorizes entries in the activity feed.
type NotificationType string

const (
	NotificationTypeChat    NotificationType = "chat"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeGeneric NotificationType = "generic"
)

// Notification is an entry from the activity feed. It is a secondary signal
// source for unread reconciliation and the inbox view, never authoritative
// for message content.
type Notification struct {
	ID   string           `json:"id"`
	Type NotificationType `json:"type"`

	// Link is an opaque locator. It may reference a conversation id or a
	// listing id; the reconciler decides which.
	Link string `json:"link"`

	Read bool `json:"read"`

	// SenderLabel is a human-readable name of the originating party, when the
	// feed carries one. Sometimes more complete than the conversation summary.
	SenderLabel string `json:"sender_label,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

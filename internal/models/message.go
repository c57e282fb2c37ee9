package models

import "time"

// ModerationState tracks whether a message has been removed by moderation.
type ModerationState string

const (
	ModerationStateActive  ModerationState = "active"
	ModerationStateDeleted ModerationState = "deleted"
)

// DeletedMessagePlaceholder is rendered in place of the body of a deleted
// message. The original body must never be shown once a message is deleted,
// even when a stale local copy still carries it.
const DeletedMessagePlaceholder = "[mensaje eliminado por moderación]"

// Sender identifies which side of the conversation authored a message, from
// the point of view of the current user.
type Sender string

const (
	SenderYou  Sender = "you"
	SenderThem Sender = "them"
)

// Message is a single chat message. Messages are created on send (optimistic
// local instance, later confirmed by the server echo) or fetched from history.
// The only mutation after creation is the deleted transition.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	SenderID       string          `json:"sender_id"`
	Body           string          `json:"body"`
	Timestamp      time.Time       `json:"timestamp"`
	Moderation     ModerationState `json:"moderation"`

	// ReadBy lists participant ids that have acknowledged the message.
	ReadBy []string `json:"read_by,omitempty"`

	// Side is derived by comparing SenderID to the current user id, never
	// taken from the payload. Empty until a thread controller computes it.
	Side Sender `json:"-"`

	// ReadByOther is derived from ReadBy and the other participant's id.
	ReadByOther bool `json:"-"`

	// Pending marks an optimistic local message not yet confirmed by the
	// backend echo.
	Pending bool `json:"-"`
}

// Deleted reports whether the message has been removed by moderation.
func (m *Message) Deleted() bool {
	return m.Moderation == ModerationStateDeleted
}

// DisplayBody returns the body safe for rendering: the fixed placeholder for
// deleted messages, the original body otherwise.
func (m *Message) DisplayBody() string {
	if m.Deleted() {
		return DeletedMessagePlaceholder
	}
	return m.Body
}

// ReadByParticipant reports whether the given participant id appears in the
// message's read-acknowledgement set.
func (m *Message) ReadByParticipant(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range m.ReadBy {
		if r == id {
			return true
		}
	}
	return false
}

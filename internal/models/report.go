package models

import "time"

// ReportState tracks the lifecycle of a moderation report.
type ReportState string

const (
	ReportStateOpen     ReportState = "open"
	ReportStateInReview ReportState = "in_review"
	ReportStateResolved ReportState = "resolved"
	ReportStateRejected ReportState = "rejected"
)

// Pending reports whether the report still awaits an admin decision.
func (s ReportState) Pending() bool {
	return s == ReportStateOpen || s == ReportStateInReview
}

// Report is a user complaint against a message. ClientDeleted is an
// independent axis from the report state: an admin may delete the offending
// account without resolving the report, and vice versa.
type Report struct {
	ID                string      `json:"id"`
	ConversationID    string      `json:"conversation_id"`
	ReportedMessageID string      `json:"reported_message_id"`
	ReporterID        string      `json:"reporter_id"`
	Reason            string      `json:"reason"`
	State             ReportState `json:"state"`

	// ClientDeleted is set when an admin marks the reported party's account
	// deleted.
	ClientDeleted bool `json:"client_deleted"`

	// MessageDeleted mirrors the reported message's moderation state as known
	// to the moderation view.
	MessageDeleted bool `json:"message_deleted"`

	// AdminComment is the free-text note attached by the acting admin.
	AdminComment string `json:"admin_comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

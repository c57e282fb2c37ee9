package models

import "time"

// Signal is the ephemeral cross-instance broadcast record written when a
// conversation changes. OriginID identifies the client instance that produced
// it, so an instance never reacts to its own broadcast.
type Signal struct {
	ConversationID string    `json:"conversation_id"`
	Timestamp      time.Time `json:"timestamp"`
	OriginID       string    `json:"origin_id"`
}

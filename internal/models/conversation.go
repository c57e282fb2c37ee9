// Package models defines the domain entities shared across motochat.
package models

import (
	"strings"
	"time"
)

// ListingType identifies the kind of marketplace listing a conversation is
// anchored to.
type ListingType string

const (
	ListingTypeMoto ListingType = "moto"
	ListingTypePart ListingType = "part"
	ListingTypeNone ListingType = ""
)

// ParticipantsHint is the raw, possibly incomplete descriptor of the two
// parties as delivered by the backend. Any of the fields may be empty; the
// resolver derives a display identity from whatever is present.
type ParticipantsHint struct {
	// BuyerID is the id of the interested party, when known.
	BuyerID string `json:"buyer_id,omitempty"`

	// OwnerID is the id of the listing owner, when known.
	OwnerID string `json:"owner_id,omitempty"`

	// BuyerName and OwnerName are server-provided display names, when known.
	BuyerName string `json:"buyer_name,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`

	// Label is the conversation's free-text title as stored by the backend.
	// It is sometimes a well-formed listing tag and sometimes an opaque token.
	Label string `json:"label,omitempty"`
}

// LastMessage is the denormalized preview of a conversation's newest message.
type LastMessage struct {
	Body      string    `json:"body"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`

	// ReadBy lists the participant ids that have acknowledged the message.
	ReadBy []string `json:"read_by,omitempty"`
}

// Conversation is a two-party message thread, optionally anchored to a
// marketplace listing. Entries are created by the conversations-list fetch and
// mutated in place by the resolver, the reconciler and the thread controller;
// they are never deleted client-side.
type Conversation struct {
	// ID is the opaque, unique conversation identifier.
	ID string `json:"id"`

	// Participants is the raw descriptor of the two parties.
	Participants ParticipantsHint `json:"participants"`

	// RelatedListingID links the conversation to the listing that originated
	// it, when there is one.
	RelatedListingID   string      `json:"related_listing_id,omitempty"`
	RelatedListingType ListingType `json:"related_listing_type,omitempty"`

	// DisplayTitle is the resolved, human-readable name of the other
	// participant. It starts as a placeholder and is refined asynchronously.
	DisplayTitle string `json:"display_title"`

	// Last is the denormalized preview of the newest message.
	Last LastMessage `json:"last"`

	// UnreadCount is only ever reset by an explicit mark-read and only ever
	// increased by reconciliation.
	UnreadCount int `json:"unread_count"`
}

// OtherParticipantID returns the id of the party that is not the given user,
// or "" when the hint does not carry one.
func (c *Conversation) OtherParticipantID(selfID string) string {
	buyer := strings.TrimSpace(c.Participants.BuyerID)
	owner := strings.TrimSpace(c.Participants.OwnerID)
	if buyer != "" && buyer != selfID {
		return buyer
	}
	if owner != "" && owner != selfID {
		return owner
	}
	return ""
}

// HasListing reports whether the conversation is anchored to a listing.
func (c *Conversation) HasListing() bool {
	return strings.TrimSpace(c.RelatedListingID) != ""
}

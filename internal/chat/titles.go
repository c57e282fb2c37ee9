package chat

import (
	"strings"
	"unicode"

	"github.com/ismaelvargas20/motochat/internal/models"
)

const (
	buyerPlaceholderPrefix  = "Buyer #"
	sellerPlaceholderPrefix = "Seller #"
	unknownTitle            = "Buyer #?"
)

// PlaceholderTitle builds the numeric placeholder for the other participant,
// pending async resolution.
func PlaceholderTitle(conv *models.Conversation, selfID string) string {
	other := conv.OtherParticipantID(selfID)
	if other == "" {
		return unknownTitle
	}
	// Sellers own the listing; everyone else is a buyer.
	if conv.Participants.OwnerID == other {
		return sellerPlaceholderPrefix + other
	}
	return buyerPlaceholderPrefix + other
}

// IsPlaceholder reports whether a title is still the numeric placeholder (or
// missing entirely) and therefore eligible for async resolution.
func IsPlaceholder(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return true
	}
	return strings.HasPrefix(title, buyerPlaceholderPrefix) ||
		strings.HasPrefix(title, sellerPlaceholderPrefix)
}

// initialTitle applies the display-title fallback chain on load:
// explicit server name, embedded profile name, well-formed listing label,
// numeric placeholder.
func initialTitle(conv *models.Conversation, selfID string) string {
	if name := strings.TrimSpace(conv.DisplayTitle); name != "" && !IsPlaceholder(name) {
		return name
	}

	hint := conv.Participants
	if conv.OtherParticipantID(selfID) == hint.OwnerID {
		if name := strings.TrimSpace(hint.OwnerName); name != "" {
			return name
		}
	} else if name := strings.TrimSpace(hint.BuyerName); name != "" {
		return name
	}

	if label := strings.TrimSpace(hint.Label); label != "" && isListingTag(label) {
		return label
	}

	return PlaceholderTitle(conv, selfID)
}

// isListingTag reports whether a conversation label reads like a marketplace
// listing tag rather than an opaque token. Opaque-looking labels are never
// shown verbatim.
func isListingTag(label string) bool {
	if label == "" {
		return false
	}
	// Listing tags carry word boundaries ("Honda CB500F 2019"); opaque tokens
	// do not.
	if strings.ContainsAny(label, " -_/") {
		return !looksOpaque(strings.Map(dropSeparators, label))
	}
	return !looksOpaque(label)
}

func dropSeparators(r rune) rune {
	switch r {
	case ' ', '-', '_', '/':
		return -1
	}
	return r
}

// looksOpaque detects hash-like tokens: long unbroken alphanumeric runs with
// a character distribution heavy in digits or hex letters.
func looksOpaque(s string) bool {
	if len(s) < 20 {
		return false
	}

	var digits, hexLetters, other int
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			hexLetters++
		case unicode.IsLetter(r):
			other++
		default:
			// Punctuation breaks the hash shape.
			return false
		}
	}

	total := digits + hexLetters + other
	if total == 0 {
		return false
	}
	// Hashes mix digits throughout; natural-language tags rarely exceed a
	// third digits once separators are gone.
	if float64(digits)/float64(total) >= 0.3 {
		return true
	}
	// Pure hex alphabet over a long run is a token even with few digits.
	return other == 0 && digits > 0
}

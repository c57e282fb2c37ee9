package chat

import (
	"strings"

	"github.com/ismaelvargas20/motochat/internal/models"
)

// ReconcileUnread merges the unread signals from the notification feed into
// the conversation summaries. Pure function: the inputs are not mutated and
// running it twice on the same inputs yields the same output.
//
// A notification counts toward a conversation when its link names the
// conversation id directly, or when it names the conversation's related
// listing and that listing is referenced by exactly one conversation in the
// set. Counts only ever grow here; mark-read is the one path that decreases
// them.
func ReconcileUnread(conversations []models.Conversation, notifications []models.Notification) []models.Conversation {
	countByLink := make(map[string]int)
	labelByLink := make(map[string]string)
	for _, n := range notifications {
		if n.Type != models.NotificationTypeChat {
			continue
		}
		link := strings.TrimSpace(n.Link)
		if link == "" {
			continue
		}
		if !n.Read {
			countByLink[link]++
		}
		if label := strings.TrimSpace(n.SenderLabel); label != "" && labelByLink[link] == "" {
			labelByLink[link] = label
		}
	}

	// A listing referenced by two or more conversations cannot attribute its
	// notifications to any one of them.
	listingRefs := make(map[string]int)
	for i := range conversations {
		if id := conversations[i].RelatedListingID; id != "" {
			listingRefs[id]++
		}
	}

	out := make([]models.Conversation, len(conversations))
	copy(out, conversations)
	for i := range out {
		conv := &out[i]

		candidate := countByLink[conv.ID]
		label := labelByLink[conv.ID]
		if conv.RelatedListingID != "" && listingRefs[conv.RelatedListingID] == 1 {
			candidate += countByLink[conv.RelatedListingID]
			if label == "" {
				label = labelByLink[conv.RelatedListingID]
			}
		}

		if candidate > conv.UnreadCount {
			conv.UnreadCount = candidate
		}
		// The feed's sender label is sometimes more complete than the
		// conversation summary; use it to retire a placeholder.
		if label != "" && IsPlaceholder(conv.DisplayTitle) {
			conv.DisplayTitle = label
		}
	}
	return out
}

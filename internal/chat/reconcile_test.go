package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func chatNotification(id, link string, read bool) models.Notification {
	return models.Notification{ID: id, Type: models.NotificationTypeChat, Link: link, Read: read}
}

func TestReconcileDirectLink(t *testing.T) {
	convs := []models.Conversation{{ID: "c1", UnreadCount: 1}}
	feed := []models.Notification{
		chatNotification("n1", "c1", false),
		chatNotification("n2", "c1", false),
		chatNotification("n3", "c1", true), // read, does not count
	}

	out := ReconcileUnread(convs, feed)
	require.Equal(t, 2, out[0].UnreadCount)
	// Input untouched.
	require.Equal(t, 1, convs[0].UnreadCount)
}

func TestReconcileNeverDecreases(t *testing.T) {
	convs := []models.Conversation{{ID: "c1", UnreadCount: 7}}
	out := ReconcileUnread(convs, []models.Notification{chatNotification("n1", "c1", false)})
	require.Equal(t, 7, out[0].UnreadCount)
}

func TestReconcileIdempotent(t *testing.T) {
	convs := []models.Conversation{
		{ID: "c1", RelatedListingID: "l1", UnreadCount: 0},
		{ID: "c2", UnreadCount: 2},
	}
	feed := []models.Notification{
		chatNotification("n1", "l1", false),
		chatNotification("n2", "c2", false),
	}

	once := ReconcileUnread(convs, feed)
	twice := ReconcileUnread(once, feed)
	require.Equal(t, once, twice)
}

func TestReconcileListingLink(t *testing.T) {
	convs := []models.Conversation{{ID: "c1", RelatedListingID: "l1"}}
	out := ReconcileUnread(convs, []models.Notification{chatNotification("n1", "l1", false)})
	require.Equal(t, 1, out[0].UnreadCount)
}

func TestReconcileAmbiguousListingNotAttributed(t *testing.T) {
	convs := []models.Conversation{
		{ID: "c1", RelatedListingID: "l1"},
		{ID: "c2", RelatedListingID: "l1"},
	}
	out := ReconcileUnread(convs, []models.Notification{
		chatNotification("n1", "l1", false),
		chatNotification("n2", "l1", false),
	})
	require.Zero(t, out[0].UnreadCount, "ambiguous listing counts must not be cross-attributed")
	require.Zero(t, out[1].UnreadCount)
}

func TestReconcileIgnoresNonChatNotifications(t *testing.T) {
	convs := []models.Conversation{{ID: "c1"}}
	out := ReconcileUnread(convs, []models.Notification{
		{ID: "n1", Type: models.NotificationTypeComment, Link: "c1"},
		{ID: "n2", Type: models.NotificationTypeGeneric, Link: "c1"},
	})
	require.Zero(t, out[0].UnreadCount)
}

func TestReconcileUpgradesPlaceholderTitle(t *testing.T) {
	convs := []models.Conversation{
		{ID: "c1", DisplayTitle: "Buyer #4"},
		{ID: "c2", DisplayTitle: "Laura Gómez"},
	}
	feed := []models.Notification{
		{ID: "n1", Type: models.NotificationTypeChat, Link: "c1", Read: true, SenderLabel: "Pedro Martín"},
		{ID: "n2", Type: models.NotificationTypeChat, Link: "c2", Read: false, SenderLabel: "Otro Nombre"},
	}

	out := ReconcileUnread(convs, feed)
	require.Equal(t, "Pedro Martín", out[0].DisplayTitle)
	// A resolved title is never overwritten by a feed label.
	require.Equal(t, "Laura Gómez", out[1].DisplayTitle)
}

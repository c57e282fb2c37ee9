package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func TestPreviewText(t *testing.T) {
	require.Equal(t, "hola", previewText("hola", 40))
	require.Equal(t, "hola que tal", previewText("hola\nque  tal", 40))

	long := previewText("una moto en muy buen estado con extras y maletas", 20)
	require.LessOrEqual(t, len([]rune(long)), 20)
	require.Equal(t, "…", string([]rune(long)[len([]rune(long))-1:]))
}

func TestUnreadBadge(t *testing.T) {
	require.Equal(t, "-", unreadBadge(0))
	require.Equal(t, "3", unreadBadge(3))
}

func TestRelativeTime(t *testing.T) {
	require.Equal(t, "-", relativeTime(time.Time{}))
	require.Equal(t, "now", relativeTime(time.Now()))
	require.Equal(t, "5m", relativeTime(time.Now().Add(-5*time.Minute)))
	require.Equal(t, "3h", relativeTime(time.Now().Add(-3*time.Hour)))
}

func TestResolveBody(t *testing.T) {
	_, err := resolveBody("hola", "some-file")
	require.Error(t, err, "argument and --file are mutually exclusive")

	body, err := resolveBody("hola", "")
	require.NoError(t, err)
	require.Equal(t, "hola", body)

	path := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("desde fichero"), 0o644))
	body, err = resolveBody("", path)
	require.NoError(t, err)
	require.Equal(t, "desde fichero", body)

	_, err = resolveBody("", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestReportFlags(t *testing.T) {
	require.Equal(t, "-", reportFlags(models.Report{}))
	require.Equal(t, "message-deleted", reportFlags(models.Report{MessageDeleted: true}))
	require.Equal(t, "message-deleted,client-deleted", reportFlags(models.Report{MessageDeleted: true, ClientDeleted: true}))
}

func TestActionList(t *testing.T) {
	open := models.Report{State: models.ReportStateOpen}
	require.Equal(t, "resolve, delete-message, delete-client, retire", actionList(open))

	settled := models.Report{State: models.ReportStateResolved}
	require.Equal(t, "retire", actionList(settled))
}

func TestFormatMessageLine(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 30, 0, 0, time.Local)

	sent := models.Message{Body: "hola", Timestamp: at, Side: models.SenderYou, ReadByOther: true}
	require.Contains(t, formatMessageLine(sent), "✓")
	require.Contains(t, formatMessageLine(sent), "you")

	pending := models.Message{Body: "hola", Timestamp: at, Side: models.SenderYou, Pending: true}
	require.Contains(t, formatMessageLine(pending), "~")

	deleted := models.Message{Body: "original", Timestamp: at, Side: models.SenderThem, Moderation: models.ModerationStateDeleted}
	line := formatMessageLine(deleted)
	require.Contains(t, line, models.DeletedMessagePlaceholder)
	require.NotContains(t, line, "original")
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd("test")
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"inbox", "new", "open", "send", "watch", "notifications", "report", "admin", "tui"} {
		require.True(t, names[want], "missing command %s", want)
	}
}

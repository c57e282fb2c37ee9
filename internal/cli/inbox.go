package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func newInboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List your conversations with unread counts",
		Args:  cobra.NoArgs,
		RunE:  runInbox,
	}
	cmd.Flags().Bool("unread", false, "Only show conversations with unread messages")
	return cmd
}

func runInbox(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Inbox.Refresh(ctx); err != nil {
		return friendlyError(err)
	}

	conversations := app.Store.List()
	unreadOnly, _ := cmd.Flags().GetBool("unread")
	if unreadOnly {
		filtered := conversations[:0]
		for _, c := range conversations {
			if c.UnreadCount > 0 {
				filtered = append(filtered, c)
			}
		}
		conversations = filtered
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		payload, err := json.MarshalIndent(conversations, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(conversations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWITH\tUNREAD\tLAST\tPREVIEW")
	for _, c := range conversations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.DisplayTitle,
			unreadBadge(c.UnreadCount),
			relativeTime(c.Last.Timestamp),
			previewText(c.Last.Body, 40),
		)
	}
	return w.Flush()
}

func unreadBadge(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

func previewText(body string, max int) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max-1]) + "…"
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

func formatMessageLine(msg models.Message) string {
	marker := " "
	switch {
	case msg.Pending:
		marker = "~"
	case msg.Side == models.SenderYou && msg.ReadByOther:
		marker = "✓"
	}
	side := "them"
	if msg.Side == models.SenderYou {
		side = "you"
	}
	return fmt.Sprintf("%s [%s] %-4s %s", msg.Timestamp.Local().Format("15:04"), marker, side, msg.DisplayBody())
}

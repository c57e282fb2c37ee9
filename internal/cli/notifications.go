package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "List your activity feed",
		Args:    cobra.NoArgs,
		RunE:    runNotifications,
	}
	cmd.Flags().Int("limit", 50, "Maximum number of entries")
	cmd.Flags().Bool("unread", false, "Only show unread notifications")

	cmd.AddCommand(&cobra.Command{
		Use:   "dismiss <notification-id>",
		Short: "Remove a notification from the feed",
		Args:  cobra.ExactArgs(1),
		RunE:  runDismissNotification,
	})
	return cmd
}

func runNotifications(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	unreadOnly, _ := cmd.Flags().GetBool("unread")

	feed, err := app.Client.ListNotifications(cmd.Context(), app.Config.Client.ID, limit)
	if err != nil {
		return friendlyError(err)
	}
	if unreadOnly {
		filtered := feed[:0]
		for _, n := range feed {
			if !n.Read {
				filtered = append(filtered, n)
			}
		}
		feed = filtered
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		payload, err := json.MarshalIndent(feed, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(feed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tFROM\tWHEN\tREAD")
	for _, n := range feed {
		read := "-"
		if n.Read {
			read = "yes"
		}
		from := n.SenderLabel
		if from == "" {
			from = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Type, from, relativeTime(n.CreatedAt), read)
	}
	return w.Flush()
}

func runDismissNotification(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Client.DismissNotification(cmd.Context(), args[0]); err != nil {
		return friendlyError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Dismissed.")
	return nil
}

package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch for conversation activity from other instances",
		Long:  "Watch subscribes to the shared signal file and prints a line whenever\nanother motochat instance reports new activity in a conversation.",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Prime the store so incoming signals can resolve to known titles.
	if err := app.Inbox.Refresh(ctx); err != nil {
		return friendlyError(err)
	}

	if err := app.Broadcaster.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = app.Broadcaster.Subscribe("watch", func(sig models.Signal) {
		app.Inbox.HandleSignal(ctx, sig)
		title := sig.ConversationID
		if conv, ok := app.Store.Get(sig.ConversationID); ok {
			title = conv.DisplayTitle
		}
		fmt.Fprintf(out, "%s  new activity in %s\n", sig.Timestamp.Local().Format("15:04:05"), title)
	})
	if err != nil {
		return err
	}
	defer func() { _ = app.Broadcaster.Unsubscribe("watch") }()

	fmt.Fprintln(out, "Watching for activity (Ctrl-C to stop)...")
	<-ctx.Done()
	return nil
}

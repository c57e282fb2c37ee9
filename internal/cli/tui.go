package cli

import (
	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/tui"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			thread := app.NewThread()
			defer thread.Close()

			return tui.Run(cmd.Context(), tui.Config{
				Store:       app.Store,
				Inbox:       app.Inbox,
				Thread:      thread,
				Session:     app.Session,
				Broadcaster: app.Broadcaster,
			})
		},
	}
}

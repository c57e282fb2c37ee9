package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <conversation-id> <message-id>",
		Short: "Report a message to the moderators",
		Args:  cobra.ExactArgs(2),
		RunE:  runReport,
	}
	cmd.Flags().String("reason", "", "Why the message is being reported (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	reason, _ := cmd.Flags().GetString("reason")
	report, err := app.Workflow.Report(cmd.Context(), args[0], args[1], reason)
	if err != nil {
		return friendlyError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report %s filed. The moderators will review it.\n", report.ID)
	return nil
}

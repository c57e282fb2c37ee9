// Package cli implements the motochat command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the motochat CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "motochat",
		Short:         "Buyer/seller messaging client for the marketplace",
		Long:          "motochat keeps a locally synchronized view of your marketplace conversations:\nunread counts, participant names, message threads and moderation reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/motochat/config.yaml)")
	cmd.PersistentFlags().Bool("json", false, "Machine-readable JSON output")

	cmd.AddCommand(
		newInboxCmd(),
		newNewCmd(),
		newOpenCmd(),
		newSendCmd(),
		newWatchCmd(),
		newNotificationsCmd(),
		newReportCmd(),
		newAdminCmd(),
		newTUICmd(),
	)

	return cmd
}

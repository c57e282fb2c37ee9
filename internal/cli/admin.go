package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/models"
	"github.com/ismaelvargas20/motochat/internal/moderation"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation commands for report handling",
	}

	list := &cobra.Command{
		Use:   "reports",
		Short: "List open and recent reports",
		Args:  cobra.NoArgs,
		RunE:  runAdminReports,
	}
	list.Flags().Bool("all", false, "Include locally retired reports")

	show := &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show a report and the actions available on it",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdminShow,
	}

	resolve := newActionCmd("resolve <report-id>", "Mark a report resolved", moderation.ActionResolve)
	deleteMsg := newActionCmd("delete-message <report-id>", "Delete the reported message", moderation.ActionDeleteMessage)
	deleteCli := newActionCmd("delete-client <report-id>", "Mark the offending account deleted", moderation.ActionDeleteClient)
	retire := newActionCmd("retire <report-id>", "Hide a report from your listing (local only)", moderation.ActionRetire)

	unretire := &cobra.Command{
		Use:   "unretire",
		Short: "Show all locally retired reports again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.requireAdmin(); err != nil {
				return err
			}
			app.Workflow.Unretire()
			fmt.Fprintln(cmd.OutOrStdout(), "Retired reports are visible again.")
			return nil
		},
	}

	cmd.AddCommand(list, show, resolve, deleteMsg, deleteCli, retire, unretire)
	return cmd
}

func newActionCmd(use, short string, action moderation.AdminAction) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			return runAdminAction(cmd, args[0], action, comment)
		},
	}
	cmd.Flags().String("comment", "", "Note to attach to the action")
	return cmd
}

func runAdminAction(cmd *cobra.Command, reportID string, action moderation.AdminAction, comment string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.requireAdmin(); err != nil {
		return err
	}

	report, err := app.Workflow.Apply(cmd.Context(), reportID, action, comment)
	if err != nil {
		return friendlyError(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report %s: %s applied (state now %s).\n", report.ID, action, report.State)
	return nil
}

func runAdminReports(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.requireAdmin(); err != nil {
		return err
	}

	all, _ := cmd.Flags().GetBool("all")
	var reports []models.Report
	if all {
		reports, err = app.Client.ListReports(cmd.Context())
	} else {
		reports, err = app.Workflow.Visible(cmd.Context())
	}
	if err != nil {
		return friendlyError(err)
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		payload, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if len(reports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tCONVERSATION\tMESSAGE\tFLAGS")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.State, r.ConversationID, r.ReportedMessageID, reportFlags(r))
	}
	return w.Flush()
}

func runAdminShow(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := app.requireAdmin(); err != nil {
		return err
	}

	report, err := app.Workflow.Detail(cmd.Context(), args[0])
	if err != nil {
		return friendlyError(err)
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Report:       %s\n", report.ID)
	fmt.Fprintf(out, "State:        %s\n", report.State)
	fmt.Fprintf(out, "Conversation: %s\n", report.ConversationID)
	fmt.Fprintf(out, "Message:      %s\n", report.ReportedMessageID)
	fmt.Fprintf(out, "Reporter:     %s\n", report.ReporterID)
	fmt.Fprintf(out, "Reason:       %s\n", report.Reason)
	if flags := reportFlags(report); flags != "-" {
		fmt.Fprintf(out, "Flags:        %s\n", flags)
	}
	if report.AdminComment != "" {
		fmt.Fprintf(out, "Admin note:   %s\n", report.AdminComment)
	}
	fmt.Fprintf(out, "Actions:      %s\n", actionList(report))
	return nil
}

func reportFlags(r models.Report) string {
	var flags []string
	if r.MessageDeleted {
		flags = append(flags, "message-deleted")
	}
	if r.ClientDeleted {
		flags = append(flags, "client-deleted")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func actionList(r models.Report) string {
	actions := moderation.AvailableActions(r)
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

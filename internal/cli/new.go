package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Start a conversation about a listing",
		Long:  "Start (or reopen, creation is idempotent per buyer/owner pair and title)\na conversation anchored to a marketplace listing.",
		Args:  cobra.ExactArgs(1),
		RunE:  runNew,
	}
	cmd.Flags().String("type", "moto", "Listing type: moto or part")
	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	listingType := models.ListingTypeMoto
	if t, _ := cmd.Flags().GetString("type"); t == "part" {
		listingType = models.ListingTypePart
	}

	conv, err := app.Client.CreateConversation(cmd.Context(), app.Config.Client.ID, args[0], listingType)
	if err != nil {
		return friendlyError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
	return nil
}

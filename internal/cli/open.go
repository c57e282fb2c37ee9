package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <conversation-id>",
		Short: "Open a conversation and print its message thread",
		Args:  cobra.ExactArgs(1),
		RunE:  runOpen,
	}
}

func runOpen(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	conversationID := args[0]

	// The store needs the entry before a thread can be opened against it.
	if _, ok := app.Store.Get(conversationID); !ok {
		if _, err := app.Store.Load(ctx); err != nil {
			return friendlyError(err)
		}
	}

	app.Session.SetOpenConversation(conversationID)
	thread := app.NewThread()
	defer thread.Close()

	messages, err := thread.Open(ctx, conversationID)
	if err != nil {
		return friendlyError(err)
	}

	jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
	if jsonOutput {
		payload, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	if conv, ok := app.Store.Get(conversationID); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Conversation with %s\n\n", conv.DisplayTitle)
	}
	if len(messages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No messages yet.")
		return nil
	}
	for _, msg := range messages {
		fmt.Fprintln(cmd.OutOrStdout(), formatMessageLine(msg))
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ismaelvargas20/motochat/internal/chat"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <conversation-id> [message]",
		Short: "Send a message to a conversation",
		Long:  "Send a message. The body comes from the argument, --file, or piped stdin.",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSendMessage,
	}
	cmd.Flags().String("file", "", "Read the message body from a file")
	return cmd
}

func runSendMessage(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	conversationID := args[0]
	bodyArg := ""
	if len(args) > 1 {
		bodyArg = args[1]
	}
	filePath, _ := cmd.Flags().GetString("file")

	body, err := resolveBody(bodyArg, filePath)
	if err != nil {
		return err
	}

	if _, ok := app.Store.Get(conversationID); !ok {
		if _, err := app.Store.Load(ctx); err != nil {
			return friendlyError(err)
		}
	}

	app.Session.SetOpenConversation(conversationID)
	thread := app.NewThread()
	defer thread.Close()

	if _, err := thread.Open(ctx, conversationID); err != nil {
		return friendlyError(err)
	}

	msg, err := thread.Send(ctx, body)
	if err != nil {
		if errors.Is(err, chat.ErrSendFailed) {
			return fmt.Errorf("message not delivered, try sending again: %w", err)
		}
		return friendlyError(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
	return nil
}

func resolveBody(bodyArg, filePath string) (string, error) {
	bodyArg = strings.TrimSpace(bodyArg)
	filePath = strings.TrimSpace(filePath)

	if filePath != "" && bodyArg != "" {
		return "", errors.New("provide either a message argument or --file, not both")
	}

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(data), nil
	case bodyArg != "":
		return bodyArg, nil
	default:
		data, err := readStdinIfPiped()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(data) == "" {
			return "", errors.New("message body required (argument, --file, or piped stdin)")
		}
		return data, nil
	}
}

func readStdinIfPiped() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", nil
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

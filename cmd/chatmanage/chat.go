package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sth00619/chat-manage/internal/chat"
)

var flagJSON bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message, or start an interactive session when none is given",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 0 {
			return sendMessage(ctx, cmd.OutOrStdout(), a.service, a.owner(), strings.Join(args, " "))
		}
		return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.service, a.owner())
	},
}

func init() {
	chatCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the full response as JSON")
	rootCmd.AddCommand(chatCmd)
}

func sendMessage(ctx context.Context, w io.Writer, svc *chat.Service, owner, text string) error {
	resp, err := svc.HandleMessage(ctx, owner, text)
	if resp != nil {
		if perr := printResponse(w, resp); perr != nil {
			return perr
		}
	}
	return err
}

func printResponse(w io.Writer, resp *chat.Response) error {
	if flagJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintln(w, resp.Message)
	return err
}

// runREPL reads one message per line until EOF or "exit". Failed messages
// are reported and the session continues.
func runREPL(ctx context.Context, r io.Reader, w io.Writer, svc *chat.Service, owner string) error {
	scanner := bufio.NewScanner(r)
	fmt.Fprint(w, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := sendMessage(ctx, w, svc, owner, line); err != nil && !errors.Is(err, chat.ErrEmptyMessage) {
				fmt.Fprintf(w, "(error: %v)\n", err)
			}
		}
		fmt.Fprint(w, "> ")
	}
	return scanner.Err()
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sth00619/chat-manage/internal/intent"
)

var flagWhen string

var queryCmd = &cobra.Command{
	Use:       "query <schedules|contacts|goals|none>",
	Short:     "List stored records without classifying a message",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(intent.Schedules), string(intent.Contacts), string(intent.Goals), string(intent.None)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.service.Query(ctx, a.owner(), intent.Category(args[0]), flagWhen)
		if err != nil {
			return err
		}
		return printResponse(cmd.OutOrStdout(), resp)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count stored records per type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.service.Summary(ctx, a.owner())
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Owner:          %s\n", a.owner())
		fmt.Fprintf(w, "Contacts:       %d\n", sum.Contacts)
		fmt.Fprintf(w, "Credentials:    %d\n", sum.Credentials)
		fmt.Fprintf(w, "Goals:          %d\n", sum.Goals)
		fmt.Fprintf(w, "Schedules:      %d\n", sum.Schedules)
		fmt.Fprintf(w, "Numerical info: %d\n", sum.NumericalInfo)
		fmt.Fprintf(w, "Total:          %d\n", sum.Total)
		fmt.Fprintf(w, "Chat messages:  %d\n", sum.ChatMessages)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&flagWhen, "when", "", "Timeframe for schedules, e.g. '다음 주', '7월', 'tomorrow', 'nextWeek'")
	queryCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the full response as JSON")
	summaryCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the counts as JSON")
	rootCmd.AddCommand(queryCmd, summaryCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

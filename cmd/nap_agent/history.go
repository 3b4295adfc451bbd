package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/nap-verifier/internal/observability"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <link-id>",
	Short: "Show past verification attempts for one listing link",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Number of attempts to show (default 50)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	linkID, err := uuid.Parse(args[0])
	if err != nil {
		return err
	}

	ctx := background(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.svc.ListingHistory(ctx, linkID, historyLimit)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(entries)
	return nil
}

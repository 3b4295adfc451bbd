package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/nap-verifier/internal/observability"
	"github.com/jonathan/nap-verifier/internal/types"
)

var (
	mismatchStatus string
	mismatchLimit  int
	mismatchOffset int
)

var followUpsCmd = &cobra.Command{
	Use:   "followups",
	Short: "List correction requests waiting a week or more",
	Args:  cobra.NoArgs,
	RunE:  runFollowUps,
}

var mismatchesCmd = &cobra.Command{
	Use:   "mismatches",
	Short: "List listings needing attention, highest priority first",
	Args:  cobra.NoArgs,
	RunE:  runMismatches,
}

func init() {
	mismatchesCmd.Flags().StringVar(&mismatchStatus, "status", "", "Only this listing status (default: every status except matched)")
	mismatchesCmd.Flags().IntVar(&mismatchLimit, "limit", 0, "Page size (default 50)")
	mismatchesCmd.Flags().IntVar(&mismatchOffset, "offset", 0, "Page offset")
	rootCmd.AddCommand(followUpsCmd, mismatchesCmd)
}

func runFollowUps(cmd *cobra.Command, _ []string) error {
	ctx := background(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.svc.FollowUps(ctx)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintFollowUps(items)
	return nil
}

func runMismatches(cmd *cobra.Command, _ []string) error {
	ctx := background(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.svc.ListMismatches(ctx, types.MismatchFilter{
		Status: types.ListingStatus(mismatchStatus),
		Limit:  mismatchLimit,
		Offset: mismatchOffset,
	})
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintMismatches(page)
	return nil
}

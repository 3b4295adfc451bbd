package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/nap-verifier/internal/observability"
	"github.com/jonathan/nap-verifier/internal/verification"
)

var (
	verifySites []string
	verifyForce bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <record-id>",
	Short: "Verify one canonical record against its listing sites",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var verifyAllCmd = &cobra.Command{
	Use:   "verify-all",
	Short: "Verify every canonical record",
	Long: `Verify every canonical record in sequence. Interrupting stops new records from starting;
the record in progress finishes and is saved.`,
	Args: cobra.NoArgs,
	RunE: runVerifyAll,
}

func init() {
	verifyCmd.Flags().StringSliceVar(&verifySites, "site", nil, "Site IDs to verify (default: all linked sites)")
	for _, c := range []*cobra.Command{verifyCmd, verifyAllCmd} {
		c.Flags().BoolVar(&verifyForce, "force", false, "Ignore the cache window and re-check every link")
		rootCmd.AddCommand(c)
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	recordID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", args[0], err)
	}
	siteIDs, err := parseIDs(verifySites)
	if err != nil {
		return err
	}

	ctx := background(cmd)
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.svc.RunVerification(ctx, cliOperator, recordID, verification.RunOptions{
		SiteIDs:      siteIDs,
		ForceRefresh: verifyForce,
	})
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintRunResult(run)
	return nil
}

func runVerifyAll(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(background(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	batch, err := a.svc.VerifyAll(ctx, cliOperator, verification.RunOptions{ForceRefresh: verifyForce})
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintBatchResult(batch)
	return nil
}

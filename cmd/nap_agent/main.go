// Package main provides the nap_agent CLI: the verification API server plus
// one-shot commands for operators.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nap_agent",
	Short: "NAP listing verification engine",
	Long: `nap_agent checks how third-party listing sites show a business's name, address and phone
against its canonical record, tracks each listing's status and remediation priority, and
follows up on correction requests.

Configuration comes from --config (JSON), then environment variables (a .env file is loaded if present).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/nap-verifier/internal/config"
	"github.com/jonathan/nap-verifier/internal/server"
	"github.com/jonathan/nap-verifier/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes verification, mismatch and follow-up endpoints. Requires JWT_SECRET.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(background(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtConfig, err := config.NewJWTConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv := server.New(
		server.Config{Port: port},
		a.svc,
		a.db,
		server.NewJWTService(jwtConfig).AsTokenValidator(),
		ratelimit.NewLimiter(ratelimit.LoadConfig(os.Getenv)),
		a.log,
	)
	return srv.Start(ctx)
}

// background returns cmd's context, or a fresh one when the command is invoked directly.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

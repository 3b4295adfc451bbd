package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/nap-verifier/internal/config"
	"github.com/jonathan/nap-verifier/internal/server"
	"github.com/jonathan/nap-verifier/internal/types"
)

var (
	tokenUserID string
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Long:  `Issue a signed bearer token for the REST API using JWT_SECRET. Roles: admin, operator, viewer.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID (UUID) to embed in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", types.RoleOperator, "Role to embed in the token")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	caller, err := parseCaller(tokenUserID, tokenRole)
	if err != nil {
		return err
	}

	jwtConfig, err := config.NewJWTConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(caller)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func parseCaller(userID, role string) (types.Caller, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return types.Caller{}, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	switch role {
	case types.RoleAdmin, types.RoleOperator, types.RoleViewer:
	default:
		return types.Caller{}, fmt.Errorf("unknown role %q", role)
	}
	return types.Caller{UserID: id, Role: role}, nil
}

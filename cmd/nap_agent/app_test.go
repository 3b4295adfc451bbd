package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/nap-verifier/internal/config"
	"github.com/jonathan/nap-verifier/internal/fetch"
	"github.com/jonathan/nap-verifier/internal/retrieval"
	"github.com/jonathan/nap-verifier/internal/server"
	"github.com/jonathan/nap-verifier/internal/types"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "verify", "verify-all", "followups", "mismatches", "migrate", "token", "history"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestCLIOperatorCanTrigger(t *testing.T) {
	assert.True(t, cliOperator.CanTrigger())
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := parseIDs([]string{a.String() + ", " + b.String(), ""})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = parseIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDs([]string{"epark"})
	assert.Error(t, err)
}

func TestParseCaller(t *testing.T) {
	id := uuid.New()

	caller, err := parseCaller(id.String(), types.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, types.Caller{UserID: id, Role: types.RoleViewer}, caller)

	_, err = parseCaller(id.String(), "root")
	assert.Error(t, err)
	_, err = parseCaller("me", types.RoleAdmin)
	assert.Error(t, err)
}

func TestNewSearcher_FallsBackWhenUnconfigured(t *testing.T) {
	s, err := newSearcher(context.Background(), config.SearchConfig{QPS: 1})
	require.NoError(t, err)
	assert.IsType(t, retrieval.Unconfigured{}, s)
}

func TestFetchOptions(t *testing.T) {
	opts := fetchOptions(config.FetchConfig{TimeoutSeconds: 5, UserAgent: "nap-agent/1.0"})
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, "nap-agent/1.0", opts.UserAgent)
	assert.Equal(t, fetch.DefaultOptions().BrowserTimeout, opts.BrowserTimeout)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-jwt-signing-minimum-32-bytes")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_EXPIRATION_HOURS", "")
	userID := uuid.New()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user-id", userID.String(), "--role", types.RoleOperator})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	jwtConfig, err := config.NewJWTConfig(func(k string) string {
		if k == "JWT_SECRET" {
			return "test-secret-key-for-jwt-signing-minimum-32-bytes"
		}
		return ""
	})
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, types.Caller{UserID: userID, Role: types.RoleOperator}, claims.GetCaller())
}

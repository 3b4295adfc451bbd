package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/nap-verifier/internal/config"
	"github.com/jonathan/nap-verifier/internal/types"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testSecret,
		Issuer:          "nap-verifier",
		ExpirationHours: expirationHours,
	})
}

func TestJWTService_GenerateToken(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken(types.Caller{UserID: uuid.New(), Role: types.RoleOperator})
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have 3 parts separated by dots")
}

func TestJWTService_RoundTripCaller(t *testing.T) {
	service := setupTestJWTService(t, 24)
	caller := types.Caller{UserID: uuid.New(), Role: types.RoleAdmin}

	token, err := service.GenerateToken(caller)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, caller, claims.GetCaller())
	assert.Equal(t, caller.UserID.String(), claims.Subject)
	assert.Equal(t, "nap-verifier", claims.Issuer)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	caller := types.Caller{UserID: uuid.New(), Role: types.RoleViewer}
	token, err := service.GenerateToken(caller)
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, caller, got.GetCaller())

	_, err = service.AsTokenValidator().ValidateToken("garbage")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_InvalidSignature(t *testing.T) {
	signer := setupTestJWTService(t, 24)
	verifier := NewJWTService(&config.JWTConfig{
		Secret:          "different-secret-key-for-jwt-signing-minimum-32-bytes",
		Issuer:          "nap-verifier",
		ExpirationHours: 24,
	})

	token, err := signer.GenerateToken(types.Caller{UserID: uuid.New(), Role: types.RoleOperator})
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "signature")
}

func TestJWTService_ValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService(&config.JWTConfig{Secret: testSecret, Issuer: "someone-else", ExpirationHours: 24})
	token, err := other.GenerateToken(types.Caller{UserID: uuid.New(), Role: types.RoleOperator})
	require.NoError(t, err)

	_, err = setupTestJWTService(t, 24).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_MalformedToken(t *testing.T) {
	service := setupTestJWTService(t, 24)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "one part", token: "invalid"},
		{name: "two parts", token: "invalid.token"},
		{name: "four parts", token: "invalid.token.format.extra"},
		{name: "invalid base64", token: "invalid.base64.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	service := setupTestJWTService(t, 24)
	claims := &Claims{UserID: uuid.New(), Role: types.RoleAdmin}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = service.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestJWTService_TokenExpiration(t *testing.T) {
	service := setupTestJWTService(t, 1)
	issued := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(types.Caller{UserID: uuid.New(), Role: types.RoleOperator})
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	require.NoError(t, err)

	service.now = func() time.Time { return issued.Add(2 * time.Hour) }
	claims, err := service.ValidateToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTService_ValidateToken_MissingUserID(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken(types.Caller{Role: types.RoleAdmin})
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

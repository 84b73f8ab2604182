package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/config"
)

func TestGenerateAndParse(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "s3cret", TTL: time.Hour}
	tok, err := GenerateToken(cfg, 42, "a@example.com", time.Now())
	require.NoError(t, err)

	claims, err := ParseToken(cfg, tok)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken(&config.JWTConfig{Secret: "one"}, 1, "a@example.com", time.Now())
	require.NoError(t, err)

	_, err = ParseToken(&config.JWTConfig{Secret: "two"}, tok)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "s3cret", TTL: time.Minute}
	tok, err := GenerateToken(cfg, 1, "a@example.com", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(cfg, tok)
	assert.Error(t, err)
}

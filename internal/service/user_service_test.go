package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jwtCfg := &config.JWTConfig{Secret: "test", TTL: time.Hour}
	svc := NewUserService(env.store, jwtCfg, nil)

	u, err := svc.Register(ctx, "Grace", " Grace@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = svc.Register(ctx, "Grace Again", "grace@example.com", "another pass")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(ctx, "", "x@example.com", "longenough")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "Short", "short@example.com", "abc")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.Login(ctx, "grace@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, logged, err := svc.Login(ctx, "GRACE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	claims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)
	got, err := svc.VerifyClaims(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestUserService_PasswordChangeRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jwtCfg := &config.JWTConfig{Secret: "test", TTL: time.Hour}
	svc := NewUserService(env.store, jwtCfg, nil)

	now := time.Now().Add(-time.Minute)
	svc.now = func() time.Time { return now }

	u, err := svc.Register(ctx, "Alan", "alan@example.com", "enigma-1912")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "alan@example.com", "enigma-1912")
	require.NoError(t, err)
	oldClaims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "bombe-1940"), ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "enigma-1912", "bombe-1940"))

	_, err = svc.VerifyClaims(ctx, oldClaims)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	token, _, err = svc.Login(ctx, "alan@example.com", "bombe-1940")
	require.NoError(t, err)
	newClaims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)
	_, err = svc.VerifyClaims(ctx, newClaims)
	assert.NoError(t, err)
}

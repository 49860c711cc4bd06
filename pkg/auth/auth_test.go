package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	cfg := Config{Secret: "test-secret", TokenTTL: time.Hour}
	identity := Identity{ID: 7, Name: "reader", Email: "reader@lib.io", IsAdmin: true}

	token, expiresAt, err := NewToken(cfg, identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(cfg.TokenTTL), expiresAt, time.Minute)

	got, err := ParseToken(cfg.Secret, token)
	require.NoError(t, err)
	require.Equal(t, identity, got)
}

func TestParseToken_Expired(t *testing.T) {
	cfg := Config{Secret: "test-secret", TokenTTL: -time.Minute}
	token, _, err := NewToken(cfg, Identity{ID: 7})
	require.NoError(t, err)

	_, err = ParseToken(cfg.Secret, token)
	require.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	cfg := Config{Secret: "test-secret", TokenTTL: time.Hour}
	token, _, err := NewToken(cfg, Identity{ID: 7})
	require.NoError(t, err)

	_, err = ParseToken("another-secret", token)
	require.ErrorContains(t, err, "invalid token")
}

func TestIdentityContext(t *testing.T) {
	identity := Identity{ID: 7, Email: "reader@lib.io"}

	ctx := SetIdentity(context.Background(), identity)
	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, identity, got)

	_, ok = IdentityFromContext(context.Background())
	require.False(t, ok)
}

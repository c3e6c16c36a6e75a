package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/kvstore"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/token"
)

type failingKV struct{ kvstore.Store }

func (failingKV) Get(context.Context, string) (string, error) {
	return "", errors.New("disk on fire")
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := token.NewStore(kvstore.NewMemoryStore())

	_, ok, err := store.Get(ctx, "customer")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "customer", "tok-1"))
	tok, ok, err := store.Get(ctx, "customer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", tok)

	require.NoError(t, store.Set(ctx, "customer", "tok-2"), "writing replaces")
	tok, _, _ = store.Get(ctx, "customer")
	assert.Equal(t, "tok-2", tok)

	require.NoError(t, store.Set(ctx, "customer", ""), "empty token removes")
	_, ok, err = store.Get(ctx, "customer")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AudiencesAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := token.NewStore(kvstore.NewMemoryStore())

	require.NoError(t, store.Set(ctx, "customer", "c"))
	require.NoError(t, store.Set(ctx, "admin", "a"))

	require.NoError(t, store.Clear(ctx, "admin"))

	tok, ok, err := store.Get(ctx, "customer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c", tok)

	_, ok, _ = store.Get(ctx, "admin")
	assert.False(t, ok)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	t.Parallel()
	store := token.NewStore(kvstore.NewMemoryStore())
	assert.NoError(t, store.Clear(context.Background(), "admin"))
	assert.NoError(t, store.Clear(context.Background(), "admin"))
}

func TestStore_InvalidAudience(t *testing.T) {
	t.Parallel()
	store := token.NewStore(kvstore.NewMemoryStore())

	_, _, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, kvstore.ErrInvalidKey)

	err = store.Set(context.Background(), "bad:aud", "x")
	assert.ErrorIs(t, err, kvstore.ErrInvalidKey)
}

func TestStore_BackendError(t *testing.T) {
	t.Parallel()
	store := token.NewStore(failingKV{kvstore.NewMemoryStore()})

	_, ok, err := store.Get(context.Background(), "admin")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	got, ok := token.ExpiresAt(signed)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	assert.False(t, token.Expired(signed, exp.Add(-time.Second)))
	assert.True(t, token.Expired(signed, exp))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, ok = token.ExpiresAt(noExp)
	assert.False(t, ok)

	_, ok = token.ExpiresAt("opaque-session-token")
	assert.False(t, ok)
	assert.False(t, token.Expired("a.b.c", time.Now()), "garbage is never reported expired")
}

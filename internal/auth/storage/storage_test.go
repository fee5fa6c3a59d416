package storage

import (
	"testing"
	"time"

	"github.com/backmeup/backmeup/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryStore_RevokeAndCheck(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := t.Context()

	revoked, err := s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, s.Revoke(ctx, "tok-1", time.Minute))

	revoked, err = s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.True(t, revoked)

	// Other tokens stay valid.
	revoked, err = s.IsRevoked(ctx, "tok-2")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := t.Context()

	assert.NoError(t, s.Revoke(ctx, "tok-1", -time.Second))

	revoked, err := s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.False(t, revoked, "expired revocation should not report revoked")
}

func TestRedisStore_RevokeAndCheck(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisStore(mr.Addr(), "", 0, "")
	assert.NoError(t, err)
	defer s.Close()
	ctx := t.Context()

	revoked, err := s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, s.Revoke(ctx, "tok-1", time.Minute))

	revoked, err = s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.True(t, revoked)

	// TTL expiry.
	mr.FastForward(2 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "tok-1")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestNewStore(t *testing.T) {
	logger := zap.NewNop()

	s, err := NewStore(logger, &config.TokenStoreConfig{Type: "memory"})
	assert.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	s.Close()

	_, err = NewStore(logger, &config.TokenStoreConfig{Type: "etcd"})
	assert.Error(t, err)

	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	s, err = NewStore(logger, &config.TokenStoreConfig{
		Type:  "redis",
		Redis: config.TokenStoreRedisConfig{Addr: mr.Addr()},
	})
	assert.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	s.Close()
}

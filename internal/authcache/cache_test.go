package authcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    "u-1",
		Email: "shopper@example.com",
		Name:  "Shopper",
		Role:  domain.RoleUser,
	}
}

func TestCache_UserTTL(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cache := New(WithClock(clock))

	cache.CacheUser("tok", testUser())

	got := cache.GetUser("tok")
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.ID)

	// One millisecond before expiry the entry is still served.
	now = now.Add(UserTTL - time.Millisecond)
	assert.NotNil(t, cache.GetUser("tok"))

	// At exactly the TTL the entry must not be returned.
	now = now.Add(time.Millisecond)
	assert.Nil(t, cache.GetUser("tok"))

	// The stale entry was deleted on the read that discovered it.
	cache.mu.Lock()
	_, still := cache.users["tok"]
	cache.mu.Unlock()
	assert.False(t, still, "stale entry should be deleted on read")
}

func TestCache_TokenTTL(t *testing.T) {
	now := time.Now()
	cache := New(WithClock(func() time.Time { return now }))

	cache.CacheToken("tok", "u-1")
	assert.Equal(t, "u-1", cache.GetToken("tok"))

	now = now.Add(TokenTTL - time.Millisecond)
	assert.Equal(t, "u-1", cache.GetToken("tok"))

	now = now.Add(time.Millisecond)
	assert.Equal(t, "", cache.GetToken("tok"))
}

func TestCache_TokenTTLShorterThanUserTTL(t *testing.T) {
	assert.Less(t, TokenTTL, UserTTL)
}

func TestCache_CacheUserOverwrites(t *testing.T) {
	now := time.Now()
	cache := New(WithClock(func() time.Time { return now }))

	cache.CacheUser("tok", testUser())

	// Age the entry almost to expiry, then overwrite: the new stamp
	// must restart the TTL.
	now = now.Add(UserTTL - time.Second)
	updated := testUser()
	updated.Role = domain.RoleAdmin
	cache.CacheUser("tok", updated)

	now = now.Add(2 * time.Second)
	got := cache.GetUser("tok")
	require.NotNil(t, got)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}

func TestCache_InvalidateOnLogout(t *testing.T) {
	cache := New()

	cache.CacheUser("tok", testUser())
	cache.CacheToken("tok", "u-1")

	cache.InvalidateUser("tok")
	cache.InvalidateToken("tok")

	assert.Nil(t, cache.GetUser("tok"))
	assert.Equal(t, "", cache.GetToken("tok"))
}

func TestCache_InvalidateBoth(t *testing.T) {
	cache := New()

	cache.CacheUser("tok", testUser())
	cache.CacheToken("tok", "u-1")
	cache.Invalidate("tok")

	assert.Nil(t, cache.GetUser("tok"))
	assert.Equal(t, "", cache.GetToken("tok"))
}

func TestCache_UnknownToken(t *testing.T) {
	cache := New()
	assert.Nil(t, cache.GetUser("missing"))
	assert.Equal(t, "", cache.GetToken("missing"))
}

func TestCache_EmptyInputsIgnored(t *testing.T) {
	cache := New()
	cache.CacheUser("", testUser())
	cache.CacheUser("tok", nil)
	cache.CacheToken("", "u-1")
	cache.CacheToken("tok", "")

	assert.Nil(t, cache.GetUser(""))
	assert.Nil(t, cache.GetUser("tok"))
	assert.Equal(t, "", cache.GetToken("tok"))
}

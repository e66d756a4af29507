// Package authcache holds process-local, time-bounded caches mapping raw
// session tokens to verified users or verified token subjects, so the hot
// request path can skip signature verification and user lookups.
//
// Entries are evicted lazily on the read that discovers them stale; there
// is no background sweep and no size bound. That is acceptable only for a
// single long-lived instance with bounded concurrent sessions; scaling
// out means swapping this for a shared cache behind the same interface.
package authcache

import (
	"sync"
	"time"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/metrics"
)

const (
	// UserTTL bounds how long a cached user profile may be served.
	UserTTL = 5 * time.Minute
	// TokenTTL is shorter than UserTTL: token validity changes faster
	// than profile data and a verification failure must surface sooner.
	TokenTTL = 1 * time.Minute
)

type userEntry struct {
	user     *domain.User
	cachedAt time.Time
}

type tokenEntry struct {
	userID   string
	cachedAt time.Time
}

// Cache is an explicit object owned by the composition root and injected
// into the authorizer; it is never package-global state.
type Cache struct {
	mu     sync.Mutex
	users  map[string]userEntry
	tokens map[string]tokenEntry

	userTTL  time.Duration
	tokenTTL time.Duration
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTLs overrides the entry TTLs, for tests.
func WithTTLs(userTTL, tokenTTL time.Duration) Option {
	return func(c *Cache) {
		c.userTTL = userTTL
		c.tokenTTL = tokenTTL
	}
}

// New creates an empty auth cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		users:    make(map[string]userEntry),
		tokens:   make(map[string]tokenEntry),
		userTTL:  UserTTL,
		tokenTTL: TokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheUser unconditionally overwrites any existing entry for token,
// stamping the current time.
func (c *Cache) CacheUser(token string, user *domain.User) {
	if token == "" || user == nil {
		return
	}
	c.mu.Lock()
	c.users[token] = userEntry{user: user, cachedAt: c.now()}
	c.mu.Unlock()
}

// GetUser returns the cached user for token, or nil when absent or stale.
// A stale entry is deleted on the read that discovers it.
func (c *Cache) GetUser(token string) *domain.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.users[token]
	if !ok {
		metrics.AuthCacheMisses.WithLabelValues("user").Inc()
		return nil
	}
	if c.now().Sub(entry.cachedAt) >= c.userTTL {
		delete(c.users, token)
		metrics.AuthCacheMisses.WithLabelValues("user").Inc()
		return nil
	}
	metrics.AuthCacheHits.WithLabelValues("user").Inc()
	return entry.user
}

// CacheToken records the verified subject for token.
func (c *Cache) CacheToken(token, userID string) {
	if token == "" || userID == "" {
		return
	}
	c.mu.Lock()
	c.tokens[token] = tokenEntry{userID: userID, cachedAt: c.now()}
	c.mu.Unlock()
}

// GetToken returns the verified subject id for token, or "" when absent
// or stale.
func (c *Cache) GetToken(token string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tokens[token]
	if !ok {
		metrics.AuthCacheMisses.WithLabelValues("token").Inc()
		return ""
	}
	if c.now().Sub(entry.cachedAt) >= c.tokenTTL {
		delete(c.tokens, token)
		metrics.AuthCacheMisses.WithLabelValues("token").Inc()
		return ""
	}
	metrics.AuthCacheHits.WithLabelValues("token").Inc()
	return entry.userID
}

// InvalidateUser removes the user entry for token immediately. Called on
// logout and on any mutation that changes the cached profile, so stale
// privilege data is never served past the mutation.
func (c *Cache) InvalidateUser(token string) {
	c.mu.Lock()
	delete(c.users, token)
	c.mu.Unlock()
}

// InvalidateToken removes the token entry immediately.
func (c *Cache) InvalidateToken(token string) {
	c.mu.Lock()
	delete(c.tokens, token)
	c.mu.Unlock()
}

// Invalidate removes both entries for token.
func (c *Cache) Invalidate(token string) {
	c.mu.Lock()
	delete(c.users, token)
	delete(c.tokens, token)
	c.mu.Unlock()
}

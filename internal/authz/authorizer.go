// Package authz wraps route handlers with the fixed request pipeline:
// rate limit, authentication, role check, handler, audit. Authentication
// is attempted for every request, public routes included, so handlers
// can personalize responses when a valid token happens to be present.
package authz

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/raineandseaweb/raineandsea-sub003/internal/authcache"
	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/ratelimit"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/metrics"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
)

// AuthCookieName is the session token cookie set at login.
const AuthCookieName = session.AuthCookieName

const (
	userContextKey   = "authz.user"
	claimsContextKey = "authz.claims"
)

// TokenVerifier validates a signed token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*domain.Claims, error)
}

// UserSource loads a user by id. Implemented by the user repository.
// A (nil, nil) return means the user does not exist.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Recorder receives one audit entry per wrapped request.
type Recorder interface {
	Record(entry *domain.AuditLog)
}

// Options describes how a route is guarded and how it is audited.
type Options struct {
	// EndpointType buckets the route for audit views and metrics:
	// "public", "auth", "user", "admin", "checkout".
	EndpointType string
	// Action is the human-readable audit action, e.g. "cart.add".
	Action string
	// RequireAuth rejects unauthenticated requests with 401.
	RequireAuth bool
	// RequiredRole, when set, additionally rejects authenticated users
	// whose role does not satisfy it with 403.
	RequiredRole domain.Role
	// RateLimit names the token bucket policy applied before anything
	// else. Empty means the default API policy.
	RateLimit ratelimit.Policy
}

// Authorizer owns the shared pieces of the pipeline.
type Authorizer struct {
	cache    *authcache.Cache
	verifier TokenVerifier
	users    UserSource
	limiter  ratelimit.Limiter
	recorder Recorder
	log      *logger.Logger
}

func New(cache *authcache.Cache, verifier TokenVerifier, users UserSource, limiter ratelimit.Limiter, recorder Recorder) *Authorizer {
	return &Authorizer{
		cache:    cache,
		verifier: verifier,
		users:    users,
		limiter:  limiter,
		recorder: recorder,
		log:      logger.Get(),
	}
}

// Wrap builds the guarded handler. The audit entry is recorded on every
// outcome, including rate-limited, rejected, and panicking requests.
func (a *Authorizer) Wrap(opts Options, handler gin.HandlerFunc) gin.HandlerFunc {
	if opts.RateLimit == "" {
		opts.RateLimit = ratelimit.PolicyAPI
	}
	if opts.EndpointType == "" {
		opts.EndpointType = "public"
	}

	return func(c *gin.Context) {
		start := time.Now()
		var handlerErr string

		defer func() {
			if rec := recover(); rec != nil {
				handlerErr = fmt.Sprintf("panic: %v", rec)
				a.log.Error("handler panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
				)
				if !c.Writer.Written() {
					response.InternalError(c)
				}
				c.Abort()
			}

			status := c.Writer.Status()
			duration := time.Since(start)

			metrics.RequestsTotal.WithLabelValues(opts.EndpointType, strconv.Itoa(status)).Inc()
			metrics.RequestDuration.WithLabelValues(opts.EndpointType).Observe(duration.Seconds())

			if handlerErr == "" && len(c.Errors) > 0 {
				handlerErr = c.Errors.String()
			}
			// short-circuited rejections and handlers that respond
			// without c.Error still audit a non-empty error
			if handlerErr == "" && status >= http.StatusBadRequest {
				handlerErr = http.StatusText(status)
			}
			a.recorder.Record(a.buildEntry(c, opts, status, duration, handlerErr))
		}()

		allowed, err := a.limiter.Allow(c.Request.Context(), opts.RateLimit, c.ClientIP())
		if err != nil {
			// fail open: limiter infrastructure trouble must not take
			// the API down with it
			a.log.Warn("rate limiter unavailable", zap.Error(err))
			allowed = true
		}
		if !allowed {
			response.TooManyRequests(c, "rate limit exceeded, retry shortly")
			c.Abort()
			return
		}

		user := a.authenticate(c)
		if opts.RequireAuth && user == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if opts.RequiredRole != "" {
			if user == nil {
				response.Unauthorized(c, "authentication required")
				c.Abort()
				return
			}
			if !user.Role.Satisfies(opts.RequiredRole) {
				response.Forbidden(c, "insufficient permissions")
				c.Abort()
				return
			}
		}

		handler(c)
	}
}

// authenticate resolves the request's user through the two-level cache:
// token cache first, then a full verify, then the user cache, then the
// user store. Any failure yields an anonymous request, never an error.
func (a *Authorizer) authenticate(c *gin.Context) *domain.User {
	tokenString := extractToken(c)
	if tokenString == "" {
		return nil
	}

	if user := a.cache.GetUser(tokenString); user != nil {
		setUser(c, user)
		return user
	}

	userID := a.cache.GetToken(tokenString)
	if userID == "" {
		claims, err := a.verifier.Verify(tokenString)
		if err != nil {
			return nil
		}
		userID = claims.UserID
		a.cache.CacheToken(tokenString, userID)
		c.Set(claimsContextKey, claims)
	}

	user, err := a.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		a.log.Warn("user lookup failed during auth", zap.Error(err))
		return nil
	}
	if user == nil || !user.IsActive {
		return nil
	}

	a.cache.CacheUser(tokenString, user)
	setUser(c, user)
	return user
}

func (a *Authorizer) buildEntry(c *gin.Context, opts Options, status int, duration time.Duration, errMsg string) *domain.AuditLog {
	entry := &domain.AuditLog{
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		Status:       status,
		EndpointType: opts.EndpointType,
		Action:       opts.Action,
		IP:           c.ClientIP(),
		DurationMs:   duration.Milliseconds(),
		Error:        errMsg,
		CreatedAt:    time.Now().UTC(),
	}
	if user := UserFromContext(c); user != nil {
		entry.UserID = &user.ID
		entry.UserEmail = user.Email
		entry.UserRole = string(user.Role)
	}
	if claims := ClaimsFromContext(c); claims != nil {
		entry.SessionID = claims.SessionID
	}
	return entry
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
		return cookie
	}
	const bearerPrefix = "Bearer "
	if h := c.GetHeader("Authorization"); len(h) > len(bearerPrefix) && h[:len(bearerPrefix)] == bearerPrefix {
		return h[len(bearerPrefix):]
	}
	return ""
}

func setUser(c *gin.Context, user *domain.User) {
	c.Set(userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(c *gin.Context) *domain.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// ClaimsFromContext returns the verified token claims when the token was
// freshly verified this request. Cache hits skip claim parsing, so a nil
// return does not imply an anonymous request.
func ClaimsFromContext(c *gin.Context) *domain.Claims {
	if v, ok := c.Get(claimsContextKey); ok {
		if claims, ok := v.(*domain.Claims); ok {
			return claims
		}
	}
	return nil
}

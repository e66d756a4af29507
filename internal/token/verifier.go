// Package token issues and verifies the signed session tokens carried in
// the auth-token cookie.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
)

// SecretSource provides the server-held signing secret. Keeping it behind
// an interface lets the secret come from a manager rather than a constant.
type SecretSource interface {
	TokenSecret() ([]byte, error)
}

// StaticSecret is a SecretSource backed by configuration.
type StaticSecret []byte

func (s StaticSecret) TokenSecret() ([]byte, error) {
	if len(s) == 0 {
		return nil, errors.New("token secret is empty")
	}
	return s, nil
}

// Verifier validates session tokens and extracts the subject identity.
// It is called at most once per request, on auth cache miss.
type Verifier struct {
	secrets SecretSource
	issuer  string
	ttl     time.Duration
	now     func() time.Time
}

// Config holds token issue/verify settings.
type Config struct {
	Secrets SecretSource
	Issuer  string
	TTL     time.Duration
}

// NewVerifier creates a Verifier.
func NewVerifier(cfg Config) *Verifier {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Verifier{
		secrets: cfg.Secrets,
		issuer:  cfg.Issuer,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue signs a session token for the given user and session id.
func (v *Verifier) Issue(user *domain.User, sessionID string) (string, error) {
	secret, err := v.secrets.TokenSecret()
	if err != nil {
		return "", err
	}

	now := v.now()
	claims := jwt.MapClaims{
		"sub":        user.ID,
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       string(user.Role),
		"session_id": sessionID,
		"iss":        v.issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(v.ttl).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify validates signature, issuer and expiry and returns the claims.
// All failures map to domain.ErrInvalidToken or domain.ErrTokenExpired,
// which callers translate to HTTP 401.
func (v *Verifier) Verify(tokenString string) (*domain.Claims, error) {
	secret, err := v.secrets.TokenSecret()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		// Fall back to the standard subject claim.
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, domain.ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	sessionID, _ := claims["session_id"].(string)

	return &domain.Claims{
		UserID:    userID,
		Email:     email,
		Role:      domain.Role(role),
		SessionID: sessionID,
	}, nil
}

// TTL returns the configured token lifetime.
func (v *Verifier) TTL() time.Duration {
	return v.ttl
}

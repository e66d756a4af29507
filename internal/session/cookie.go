// Package session owns the storefront cookie contract: the auth token,
// the guest cart id, and the CSRF double-submit token. All three are
// HttpOnly; only Secure varies by deployment.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// AuthCookieName carries the signed session token. Strict SameSite,
	// seven days.
	AuthCookieName = "auth-token"
	// CartCookieName carries the cart id for guests and logged-in users
	// alike. Lax SameSite so carts survive external navigation, thirty
	// days.
	CartCookieName = "cart_id"
	// CSRFCookieName carries the double-submit CSRF token. Strict
	// SameSite, one hour.
	CSRFCookieName = "csrf-token"

	// CSRFHeaderName is where clients echo the CSRF token back.
	CSRFHeaderName = "X-CSRF-Token"

	authMaxAge = 7 * 24 * 60 * 60
	cartMaxAge = 30 * 24 * 60 * 60
	csrfMaxAge = 60 * 60
)

// Manager issues and clears the storefront cookies. Secure is false only
// in local development over plain HTTP.
type Manager struct {
	secure bool
}

func NewManager(secure bool) *Manager {
	return &Manager{secure: secure}
}

func (m *Manager) set(c *gin.Context, name, value string, maxAge int, sameSite http.SameSite) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: sameSite,
	})
}

// SetAuth issues the auth token cookie after login or registration.
func (m *Manager) SetAuth(c *gin.Context, token string) {
	m.set(c, AuthCookieName, token, authMaxAge, http.SameSiteStrictMode)
}

// ClearAuth expires the auth cookie at logout.
func (m *Manager) ClearAuth(c *gin.Context) {
	m.set(c, AuthCookieName, "", -1, http.SameSiteStrictMode)
}

// SetCart issues the cart id cookie.
func (m *Manager) SetCart(c *gin.Context, cartID string) {
	m.set(c, CartCookieName, cartID, cartMaxAge, http.SameSiteLaxMode)
}

// ClearCart expires the cart cookie, used after checkout converts the
// cart into an order.
func (m *Manager) ClearCart(c *gin.Context) {
	m.set(c, CartCookieName, "", -1, http.SameSiteLaxMode)
}

// CartID returns the cart id cookie value, or "" when absent.
func CartID(c *gin.Context) string {
	v, err := c.Cookie(CartCookieName)
	if err != nil {
		return ""
	}
	return v
}

// IssueCSRF mints a fresh random CSRF token, sets the cookie, and
// returns the token so handlers can include it in the response body.
func (m *Manager) IssueCSRF(c *gin.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	m.set(c, CSRFCookieName, token, csrfMaxAge, http.SameSiteStrictMode)
	return token, nil
}

// ValidCSRF applies the double-submit check: the header token must be
// present and match the cookie token.
func ValidCSRF(c *gin.Context) bool {
	cookie, err := c.Cookie(CSRFCookieName)
	if err != nil || cookie == "" {
		return false
	}
	header := c.GetHeader(CSRFHeaderName)
	if header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}

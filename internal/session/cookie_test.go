package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSetAuthCookieContract(t *testing.T) {
	c, w := testContext()
	NewManager(true).SetAuth(c, "tok123")

	ck := cookieByName(t, w, AuthCookieName)
	assert.Equal(t, "tok123", ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 604800, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
}

func TestClearAuthExpiresCookie(t *testing.T) {
	c, w := testContext()
	NewManager(true).ClearAuth(c)

	ck := cookieByName(t, w, AuthCookieName)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)
}

func TestSetCartCookieContract(t *testing.T) {
	c, w := testContext()
	NewManager(false).SetCart(c, "cart-42")

	ck := cookieByName(t, w, CartCookieName)
	assert.Equal(t, "cart-42", ck.Value)
	assert.Equal(t, 2592000, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestIssueCSRFCookieContract(t *testing.T) {
	c, w := testContext()
	token, err := NewManager(true).IssueCSRF(c)
	require.NoError(t, err)
	require.Len(t, token, 64)

	ck := cookieByName(t, w, CSRFCookieName)
	assert.Equal(t, token, ck.Value)
	assert.Equal(t, 3600, ck.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
}

func TestValidCSRF(t *testing.T) {
	c, _ := testContext()
	c.Request.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	c.Request.Header.Set(CSRFHeaderName, "abc")
	assert.True(t, ValidCSRF(c))

	c2, _ := testContext()
	c2.Request.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	c2.Request.Header.Set(CSRFHeaderName, "xyz")
	assert.False(t, ValidCSRF(c2))

	c3, _ := testContext()
	c3.Request.Header.Set(CSRFHeaderName, "abc")
	assert.False(t, ValidCSRF(c3), "missing cookie must fail")

	c4, _ := testContext()
	c4.Request.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	assert.False(t, ValidCSRF(c4), "missing header must fail")
}

func TestCartID(t *testing.T) {
	c, _ := testContext()
	assert.Empty(t, CartID(c))

	c.Request.AddCookie(&http.Cookie{Name: CartCookieName, Value: "cart-42"})
	assert.Equal(t, "cart-42", CartID(c))
}

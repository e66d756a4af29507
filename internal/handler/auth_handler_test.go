package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
)

func authRouter(authSvc *MockAuthService, cartSvc *MockCartService) *gin.Engine {
	h := NewAuthHandler(authSvc, cartSvc, session.NewManager(false))
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.GET("/auth/csrf", h.CSRF)
	return r
}

func TestAuthHandler_RegisterSetsAuthCookie(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(_ context.Context, req *dto.RegisterRequest, _, _ string) (*dto.AuthResponse, error) {
			return &dto.AuthResponse{
				Token:     "signed-token",
				ExpiresIn: 604800,
				User:      dto.UserResponse{ID: "u1", Email: req.Email, Role: "user"},
			}, nil
		},
	}
	r := authRouter(svc, &MockCartService{})

	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    "ann@example.com",
		Password: "Sup3r$ecret",
		Name:     "Ann",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	cookie := cookieByName(w, session.AuthCookieName)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestAuthHandler_RegisterRejectsWeakPassword(t *testing.T) {
	r := authRouter(&MockAuthService{}, &MockCartService{})

	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    "ann@example.com",
		Password: "alllowercase1!",
		Name:     "Ann",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "uppercase")
}

func TestAuthHandler_LoginAdoptsGuestCart(t *testing.T) {
	attached := ""
	authSvc := &MockAuthService{
		LoginFunc: func(_ context.Context, req *dto.LoginRequest, _, _ string) (*dto.AuthResponse, error) {
			return &dto.AuthResponse{Token: "tok", User: dto.UserResponse{ID: "u1"}}, nil
		},
	}
	cartSvc := &MockCartService{
		AttachUserFunc: func(_ context.Context, cartID, userID string) error {
			attached = cartID + "/" + userID
			return nil
		},
	}
	r := authRouter(authSvc, cartSvc)

	body, _ := json.Marshal(dto.LoginRequest{Email: "ann@example.com", Password: "pw"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.CartCookieName, Value: "cart-guest"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart-guest/u1", attached)
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	loggedOut := false
	svc := &MockAuthService{
		LogoutFunc: func(_ context.Context, token, sessionID string) error {
			assert.Equal(t, "tok", token)
			loggedOut = true
			return nil
		},
	}
	r := authRouter(svc, &MockCartService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.AuthCookieName, Value: "tok"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, loggedOut)
	cookie := cookieByName(w, session.AuthCookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge, "expired cookie clears the token")
}

func TestAuthHandler_ForgotPasswordAlwaysSucceeds(t *testing.T) {
	r := authRouter(&MockAuthService{}, &MockCartService{})

	for _, email := range []string{"real@example.com", "nobody@example.com"} {
		body, _ := json.Marshal(dto.ForgotPasswordRequest{Email: email})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestAuthHandler_CSRFIssuesToken(t *testing.T) {
	r := authRouter(&MockAuthService{}, &MockCartService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookie := cookieByName(w, session.CSRFCookieName)
	require.NotNil(t, cookie)
	assert.Len(t, cookie.Value, 64)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Contains(t, w.Body.String(), cookie.Value, "token is echoed in the body for the client to replay")
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	var gotUserID, gotSessionID string
	svc := &MockAuthService{
		ChangePasswordFunc: func(_ context.Context, userID, sessionID string, _ *dto.ChangePasswordRequest) error {
			gotUserID, gotSessionID = userID, sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, &MockCartService{}, session.NewManager(false))
	r := gin.New()
	r.PUT("/auth/password", func(c *gin.Context) {
		c.Set("authz.user", &domain.User{ID: "u1", Email: "ann@example.com", Role: "user"})
		h.ChangePassword(c)
	})

	body, _ := json.Marshal(dto.ChangePasswordRequest{
		CurrentPassword: "Sup3r$ecret",
		NewPassword:     "N3w$ecret!",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/auth/password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", gotUserID)
	assert.Empty(t, gotSessionID, "no verified claims on this request")
}

func TestAuthHandler_ChangePasswordRejectsWeakNew(t *testing.T) {
	called := false
	svc := &MockAuthService{
		ChangePasswordFunc: func(context.Context, string, string, *dto.ChangePasswordRequest) error {
			called = true
			return nil
		},
	}
	h := NewAuthHandler(svc, &MockCartService{}, session.NewManager(false))
	r := gin.New()
	r.PUT("/auth/password", h.ChangePassword)

	body, _ := json.Marshal(dto.ChangePasswordRequest{
		CurrentPassword: "Sup3r$ecret",
		NewPassword:     "alllowercase1!",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/auth/password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "uppercase")
	assert.False(t, called)
}

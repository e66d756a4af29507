package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/raineandseaweb/raineandsea-sub003/internal/authz"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/service"
	"github.com/raineandseaweb/raineandsea-sub003/internal/session"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/response"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

// AuthHandler handles account and session HTTP requests
type AuthHandler struct {
	authService service.AuthService
	cartService service.CartService
	cookies     *session.Manager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, cartService service.CartService, cookies *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cartService: cartService,
		cookies:     cookies,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.register")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}
	if ok, msg := req.ValidateEmail(); !ok {
		response.BadRequest(c, msg)
		return
	}
	if ok, msg := req.ValidatePassword(); !ok {
		response.BadRequest(c, msg)
		return
	}

	resp, err := h.authService.Register(ctx, &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	h.cookies.SetAuth(c, resp.Token)
	h.adoptGuestCart(c, resp.User.ID)
	response.Created(c, resp)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.login")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(ctx, &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	h.cookies.SetAuth(c, resp.Token)
	h.adoptGuestCart(c, resp.User.ID)
	response.Success(c, resp)
}

// adoptGuestCart binds the guest cart cookie, when present, to the user
// that just signed in. Failure is non-fatal: the cart simply stays a
// guest cart.
func (h *AuthHandler) adoptGuestCart(c *gin.Context, userID string) {
	cartID := session.CartID(c)
	if cartID == "" {
		return
	}
	_ = h.cartService.AttachUser(c.Request.Context(), cartID, userID)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.logout")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token, _ := c.Cookie(session.AuthCookieName)
	sessionID := ""
	if claims := authz.ClaimsFromContext(c); claims != nil {
		sessionID = claims.SessionID
	}

	if err := h.authService.Logout(ctx, token, sessionID); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	h.cookies.ClearAuth(c)
	response.Success(c, gin.H{"logged_out": true})
}

// LogoutAll handles POST /auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.logout_all")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user := authz.UserFromContext(c)
	if err := h.authService.LogoutAll(ctx, user.ID); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	h.cookies.ClearAuth(c)
	response.Success(c, gin.H{"logged_out": true})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := authz.UserFromContext(c)
	response.Success(c, dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}

// UpdateProfile handles PUT /auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.update_profile")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, _ := c.Cookie(session.AuthCookieName)
	user := authz.UserFromContext(c)
	updated, err := h.authService.UpdateProfile(ctx, token, user.ID, &req)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	response.Success(c, dto.UserResponse{
		ID:        updated.ID,
		Email:     updated.Email,
		Name:      updated.Name,
		Role:      string(updated.Role),
		CreatedAt: updated.CreatedAt.Format(time.RFC3339),
	})
}

// ChangePassword handles PUT /auth/password. Other sessions are ended;
// the calling one survives when it can be identified.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.change_password")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if ok, msg := req.ValidatePassword(); !ok {
		response.BadRequest(c, msg)
		return
	}

	user := authz.UserFromContext(c)
	sessionID := ""
	if claims := authz.ClaimsFromContext(c); claims != nil {
		sessionID = claims.SessionID
	}

	if err := h.authService.ChangePassword(ctx, user.ID, sessionID, &req); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Password updated."})
}

// Sessions handles GET /auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.sessions")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user := authz.UserFromContext(c)
	sessions, err := h.authService.ListSessions(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	currentID := ""
	if claims := authz.ClaimsFromContext(c); claims != nil {
		currentID = claims.SessionID
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.SessionResponse{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			IP:        s.IP,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
			ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
			Current:   s.ID == currentID,
		})
	}
	response.Success(c, out)
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.forgot_password")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "If that email is registered, a reset link has been sent."})
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.auth.reset_password")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if ok, msg := req.ValidatePassword(); !ok {
		response.BadRequest(c, msg)
		return
	}

	if err := h.authService.ResetPassword(ctx, &req); err != nil {
		span.RecordError(err)
		handleError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Password updated. Please sign in again."})
}

// CSRF handles GET /auth/csrf: issues the double-submit token.
func (h *AuthHandler) CSRF(c *gin.Context) {
	token, err := h.cookies.IssueCSRF(c)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Success(c, dto.CSRFResponse{Token: token})
}

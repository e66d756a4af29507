package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/raineandseaweb/raineandsea-sub003/internal/authcache"
	"github.com/raineandseaweb/raineandsea-sub003/internal/domain"
	"github.com/raineandseaweb/raineandsea-sub003/internal/dto"
	"github.com/raineandseaweb/raineandsea-sub003/internal/repository"
	"github.com/raineandseaweb/raineandsea-sub003/internal/token"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/logger"
	"github.com/raineandseaweb/raineandsea-sub003/pkg/telemetry"
)

const resetTokenTTL = 30 * time.Minute

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register creates an account and logs the new user in
	Register(ctx context.Context, req *dto.RegisterRequest, userAgent, ip string) (*dto.AuthResponse, error)
	// Login authenticates a user and records a session
	Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.AuthResponse, error)
	// Logout removes the session and evicts the token from the auth cache
	Logout(ctx context.Context, tokenString string, sessionID string) error
	// LogoutAll removes every session of a user
	LogoutAll(ctx context.Context, userID string) error
	// UpdateProfile changes the caller's profile fields and evicts the
	// presented token's cached user snapshot
	UpdateProfile(ctx context.Context, tokenString, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
	// ChangePassword rotates the caller's password after verifying the
	// current one, ending every other session
	ChangePassword(ctx context.Context, userID, sessionID string, req *dto.ChangePasswordRequest) error
	// ListSessions lists the caller's active sessions
	ListSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	// ForgotPassword starts a reset flow. It reports success whether or
	// not the email is registered, so the endpoint cannot be used to
	// probe for accounts.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword completes a reset flow with a single-use token
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

// authService implements AuthService
type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	resetRepo   repository.PasswordResetRepository
	verifier    *token.Verifier
	cache       *authcache.Cache
	bcryptCost  int
	log         *logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	resetRepo repository.PasswordResetRepository,
	verifier *token.Verifier,
	cache *authcache.Cache,
	bcryptCost int,
) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resetRepo:   resetRepo,
		verifier:    verifier,
		cache:       cache,
		bcryptCost:  bcryptCost,
		log:         logger.Get(),
	}
}

// Register creates an account and logs the new user in
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, userAgent, ip string) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.register")
	defer span.End()

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user, userAgent, ip)
}

// Login authenticates a user and records a session
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, userAgent, ip string) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.login")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// burn comparable time so missing accounts are not
		// distinguishable by latency
		bcrypt.CompareHashAndPassword([]byte("$2a$12$XXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"), []byte(req.Password))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.startSession(ctx, user, userAgent, ip)
}

func (s *authService) startSession(ctx context.Context, user *domain.User, userAgent, ip string) (*dto.AuthResponse, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(s.verifier.TTL()),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	tokenString, err := s.verifier.Issue(user, session.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.verifier.TTL().Seconds()),
		User:      toUserResponse(user),
	}, nil
}

// Logout removes the session and evicts the token from the auth cache
func (s *authService) Logout(ctx context.Context, tokenString string, sessionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.logout")
	defer span.End()

	s.cache.Invalidate(tokenString)
	if sessionID != "" {
		return s.sessionRepo.Delete(ctx, sessionID)
	}
	return nil
}

// LogoutAll removes every session of a user
func (s *authService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessionRepo.DeleteByUser(ctx, userID)
}

// UpdateProfile changes the caller's profile fields. The cached user
// snapshot for the presented token is evicted so the next request sees
// the new profile; other sessions' entries age out within the cache TTL.
func (s *authService) UpdateProfile(ctx context.Context, tokenString, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.update_profile")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	user.Name = req.Name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.InvalidateUser(tokenString)
	return user, nil
}

// ChangePassword rotates the caller's password after verifying the
// current one. Every other session is ended; the calling session
// survives so the user is not logged out by their own change.
func (s *authService) ChangePassword(ctx context.Context, userID, sessionID string, req *dto.ChangePasswordRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.change_password")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	if sessionID == "" {
		return s.sessionRepo.DeleteByUser(ctx, userID)
	}
	return s.sessionRepo.DeleteByUserExcept(ctx, userID, sessionID)
}

// ListSessions lists the caller's active sessions
func (s *authService) ListSessions(ctx context.Context, userID string) ([]*domain.Session, error) {
	return s.sessionRepo.ListByUser(ctx, userID)
}

// ForgotPassword starts a reset flow without revealing whether the email
// is registered
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.forgot_password")
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		// same outcome as the success path
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	resetToken := hex.EncodeToString(raw)

	now := time.Now().UTC()
	reset := &domain.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hashResetToken(resetToken),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	// delivery is a mailer concern; the token is only logged at debug
	// level for local development
	s.log.Debug("password reset token issued",
		zap.String("user_id", user.ID),
		zap.String("token", resetToken),
	)
	return nil
}

// ResetPassword completes a reset flow with a single-use token
func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	ctx, span := telemetry.StartSpan(ctx, "auth.reset_password")
	defer span.End()

	reset, err := s.resetRepo.GetValidByTokenHash(ctx, hashResetToken(req.Token))
	if err != nil {
		return err
	}
	if reset == nil {
		return domain.ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, reset.UserID, string(hashedPassword)); err != nil {
		return err
	}
	if err := s.resetRepo.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}
	// a password change ends all existing sessions
	return s.sessionRepo.DeleteByUser(ctx, reset.UserID)
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

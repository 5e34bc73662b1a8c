package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/internal/utils"
	"github.com/technofair/registration-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// AuthService handles participant account authentication
type AuthService struct {
	userRepo         *database.UserRepository
	refreshTokenRepo *database.RefreshTokenRepository
	outboxRepo       *database.OutboxRepository
	jwtService       *jwt.Service
	bcryptCost       int
	accessExpiry     time.Duration
	refreshExpiry    time.Duration
	logger           *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *database.UserRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	outboxRepo *database.OutboxRepository,
	jwtService *jwt.Service,
	bcryptCost int,
	accessExpiry, refreshExpiry time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		outboxRepo:       outboxRepo,
		jwtService:       jwtService,
		bcryptCost:       bcryptCost,
		accessExpiry:     accessExpiry,
		refreshExpiry:    refreshExpiry,
		logger:           logger,
	}
}

// Register creates an inactive participant account and queues the activation
// email. The account cannot log in until the activation link is used.
func (s *AuthService) Register(req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	activationToken, err := utils.GenerateSecret(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate activation token: %w", err)
	}

	user, err := s.userRepo.CreateUser(email, string(hash), req.FullName, activationToken)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, NewWorkflowError(ErrValidation, "an account with this email already exists")
		}
		return nil, err
	}

	payload, _ := json.Marshal(map[string]string{"token": activationToken})
	event := &models.OutboxEvent{
		EventType:      models.OutboxAccountActivation,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName,
		Payload:        payload,
	}
	if err := s.outboxRepo.EnqueueDirect(event); err != nil {
		// Account exists either way; log so an operator can resend the link.
		s.logger.WithField("user_id", user.ID).WithError(err).Error("Failed to queue activation email")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Account registered")

	return user, nil
}

// Activate activates the account holding the given activation token
func (s *AuthService) Activate(token string) error {
	if token == "" {
		return NewWorkflowError(ErrValidation, "activation token is required")
	}
	if err := s.userRepo.ActivateByToken(token); err != nil {
		return NewWorkflowError(ErrNotFound, "invalid or expired activation token")
	}
	return nil
}

// Login authenticates a participant and returns token pair
func (s *AuthService) Login(email, password, ipAddress, userAgent string) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, NewWorkflowError(ErrForbidden, "invalid email or password")
	}

	if user.Status != "active" {
		return nil, NewWorkflowError(ErrForbidden, "account is not activated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewWorkflowError(ErrForbidden, "invalid email or password")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshExpiry)
	if err := s.refreshTokenRepo.Store(user.ID, "user", refreshToken, ipAddress, userAgent, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithField("user_id", user.ID).WithError(err).Warn("Failed to update last login")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		User:         user,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token
func (s *AuthService) RefreshToken(refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, NewWorkflowError(ErrForbidden, "invalid refresh token")
	}

	stored, err := s.refreshTokenRepo.Get(refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Revoked {
		return nil, NewWorkflowError(ErrForbidden, "refresh token has been revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, NewWorkflowError(ErrForbidden, "refresh token has expired")
	}

	user, err := s.userRepo.GetUserByID(claims.UserID)
	if err != nil {
		return nil, NewWorkflowError(ErrForbidden, "account not found")
	}
	if user.Status != "active" {
		return nil, NewWorkflowError(ErrForbidden, "account is not active")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.refreshTokenRepo.UpdateLastUsed(refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token last used")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		User:         user,
	}, nil
}

// Logout revokes the given refresh token
func (s *AuthService) Logout(refreshToken string) error {
	return s.refreshTokenRepo.Revoke(refreshToken)
}

// ForgotPassword stores a reset token and queues the reset email. Unknown
// emails succeed silently so the endpoint cannot be used for enumeration.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}

	resetToken, err := utils.GenerateSecret(32)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.userRepo.SetResetToken(user.ID, resetToken, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	payload, _ := json.Marshal(map[string]string{"token": resetToken})
	event := &models.OutboxEvent{
		EventType:      models.OutboxPasswordReset,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName,
		Payload:        payload,
	}
	if err := s.outboxRepo.EnqueueDirect(event); err != nil {
		return fmt.Errorf("failed to queue reset email: %w", err)
	}

	return nil
}

// ResetPassword replaces the password for an unexpired reset token and
// revokes all outstanding sessions for the account
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < 8 {
		return NewWorkflowError(ErrValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPasswordByToken(token, string(hash)); err != nil {
		return NewWorkflowError(ErrNotFound, "invalid or expired reset token")
	}
	return nil
}

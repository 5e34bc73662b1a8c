package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthService handles admin authentication business logic
type AdminAuthService struct {
	adminRepo        *database.AdminUserRepository
	refreshTokenRepo *database.RefreshTokenRepository
	jwtService       *jwt.Service
	accessExpiry     time.Duration
	refreshExpiry    time.Duration
	logger           *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(
	adminRepo *database.AdminUserRepository,
	refreshTokenRepo *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	accessExpiry, refreshExpiry time.Duration,
	logger *logrus.Logger,
) *AdminAuthService {
	return &AdminAuthService{
		adminRepo:        adminRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtService:       jwtService,
		accessExpiry:     accessExpiry,
		refreshExpiry:    refreshExpiry,
		logger:           logger,
	}
}

// Login authenticates an admin user and returns tokens
func (s *AdminAuthService) Login(email, password, ipAddress, userAgent string) (*models.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, NewWorkflowError(ErrForbidden, "invalid email or password")
	}

	if !admin.IsActive {
		return nil, NewWorkflowError(ErrForbidden, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, NewWorkflowError(ErrForbidden, "invalid email or password")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Email, admin.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshExpiry)
	if err := s.refreshTokenRepo.Store(admin.ID, "admin", refreshToken, ipAddress, userAgent, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.adminRepo.UpdateLastLogin(admin.ID); err != nil {
		s.logger.WithField("admin_id", admin.ID).WithError(err).Warn("Failed to update last login")
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		AdminUser:    admin,
	}, nil
}

// RefreshToken generates a new access token from a refresh token
func (s *AdminAuthService) RefreshToken(refreshToken string) (*models.AdminLoginResponse, error) {
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

	admin, err := s.adminRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, NewWorkflowError(ErrForbidden, "admin user not found")
	}
	if !admin.IsActive {
		return nil, NewWorkflowError(ErrForbidden, "account is inactive")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Email, admin.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.refreshTokenRepo.UpdateLastUsed(refreshToken); err != nil {
		s.logger.WithError(err).Warn("Failed to update refresh token last used")
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		AdminUser:    admin,
	}, nil
}

// Logout revokes the refresh token
func (s *AdminAuthService) Logout(refreshToken string) error {
	return s.refreshTokenRepo.Revoke(refreshToken)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/internal/services"
	"github.com/technofair/registration-backend/internal/utils"
)

// AuthHandler handles participant authentication HTTP requests
type AuthHandler struct {
	authService      *services.AuthService
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		rateLimitService: rateLimitService,
		auditService:     auditService,
		logger:           logger,
	}
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ActivateRequest carries an account activation token
type ActivateRequest struct {
	Token string `json:"token" binding:"required"`
}

// ForgotPasswordRequest carries the account email
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest carries a reset token with the new password
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ip := utils.GetRealIP(c)
	if err := h.rateLimitService.CheckAttempt("signup", req.Email, ip); err != nil {
		if rlErr, ok := err.(*services.RateLimitExceededError); ok {
			h.auditService.LogRateLimitViolation(req.Email, ip, utils.GetUserAgent(c), rlErr.Type, rlErr.RetryAfter)
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: rlErr.Message,
			})
			return
		}
		respondError(c, err)
		return
	}
	h.rateLimitService.RecordAttempt("signup", req.Email, ip)

	user, err := h.authService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email for the activation link.",
		"user":    user,
	})
}

// Activate handles POST /api/v1/auth/activate
func (h *AuthHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.Activate(req.Token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Account activated. You can now log in."})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ip := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if err := h.rateLimitService.CheckAttempt("login", req.Email, ip); err != nil {
		if rlErr, ok := err.(*services.RateLimitExceededError); ok {
			h.auditService.LogRateLimitViolation(req.Email, ip, userAgent, rlErr.Type, rlErr.RetryAfter)
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: rlErr.Message,
			})
			return
		}
		respondError(c, err)
		return
	}

	response, err := h.authService.Login(req.Email, req.Password, ip, userAgent)
	if err != nil {
		h.rateLimitService.RecordAttempt("login", req.Email, ip)
		h.auditService.LogLogin(nil, "user", req.Email, ip, userAgent, false, err.Error())
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
		return
	}

	h.auditService.LogLogin(&response.User.ID, "user", req.Email, ip, userAgent, true, "")

	c.JSON(http.StatusOK, response)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.Logout(req.RefreshToken); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out successfully"})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ip := utils.GetRealIP(c)
	if err := h.rateLimitService.CheckAttempt("password_reset", req.Email, ip); err != nil {
		if rlErr, ok := err.(*services.RateLimitExceededError); ok {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: rlErr.Message,
			})
			return
		}
		respondError(c, err)
		return
	}
	h.rateLimitService.RecordAttempt("password_reset", req.Email, ip)

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		h.logger.WithError(err).Error("Failed to process password reset request")
	}

	// Same response whether or not the account exists
	c.JSON(http.StatusOK, SuccessResponse{Message: "If the account exists, a reset link has been sent."})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password reset. You can now log in."})
}

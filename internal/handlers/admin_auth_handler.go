package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/services"
	"github.com/technofair/registration-backend/internal/utils"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	auditService     *services.AuditService
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, auditService *services.AuditService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuthService: adminAuthService,
		auditService:     auditService,
		logger:           logger,
	}
}

// AdminLoginRequest carries admin credentials
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/admin/auth/login
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ip := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	response, err := h.adminAuthService.Login(req.Email, req.Password, ip, userAgent)
	if err != nil {
		h.auditService.LogLogin(nil, "admin", req.Email, ip, userAgent, false, err.Error())
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
		return
	}

	h.auditService.LogLogin(&response.AdminUser.ID, "admin", req.Email, ip, userAgent, true, "")

	c.JSON(http.StatusOK, response)
}

// RefreshToken handles POST /api/v1/admin/auth/refresh
func (h *AdminAuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.adminAuthService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout handles POST /api/v1/admin/auth/logout
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.adminAuthService.Logout(req.RefreshToken); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out successfully"})
}

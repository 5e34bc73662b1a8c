package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/middleware"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/internal/services"
	"github.com/technofair/registration-backend/internal/utils"
)

// RegistrationHandler handles team-facing registration HTTP requests
type RegistrationHandler struct {
	workflow         *services.RegistrationWorkflow
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
	logger           *logrus.Logger
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(
	workflow *services.RegistrationWorkflow,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		workflow:         workflow,
		rateLimitService: rateLimitService,
		auditService:     auditService,
		logger:           logger,
	}
}

// CreateRegistrationRequest is the team registration payload
type CreateRegistrationRequest struct {
	CompetitionCode string                 `json:"competition_code" binding:"required"`
	TeamName        string                 `json:"team_name" binding:"required"`
	Institution     string                 `json:"institution" binding:"required"`
	Members         []services.MemberInput `json:"members" binding:"required,min=1,dive"`
	Payment         *services.PaymentInput `json:"payment"`
}

// SubmitArtifactRequest is the phase submission payload
type SubmitArtifactRequest struct {
	Phase        string `json:"phase" binding:"required"`
	PrimaryURL   string `json:"primary_url" binding:"required"`
	SecondaryURL string `json:"secondary_url" binding:"required"`
}

// SubmitPaymentRequest is the fee payment proof payload
type SubmitPaymentRequest struct {
	Method   string `json:"method" binding:"required"`
	ProofURL string `json:"proof_url" binding:"required"`
}

// Create handles POST /api/v1/registrations
func (h *RegistrationHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ip := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if err := h.rateLimitService.CheckAttempt("registration", userCtx.Email, ip); err != nil {
		if rlErr, ok := err.(*services.RateLimitExceededError); ok {
			h.auditService.LogRateLimitViolation(userCtx.Email, ip, userAgent, rlErr.Type, rlErr.RetryAfter)
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: rlErr.Message,
			})
			return
		}
		respondError(c, err)
		return
	}
	h.rateLimitService.RecordAttempt("registration", userCtx.Email, ip)

	reg, err := h.workflow.CreateRegistration(services.CreateRegistrationInput{
		User:            &models.User{ID: userCtx.UserID, Email: userCtx.Email},
		CompetitionCode: req.CompetitionCode,
		TeamName:        req.TeamName,
		Institution:     req.Institution,
		Members:         req.Members,
		Payment:         req.Payment,
	})
	if err != nil {
		h.auditService.LogRegistrationAttempt(userCtx.UserID, req.CompetitionCode, ip, userAgent, nil, string(services.KindOf(err)))
		respondError(c, err)
		return
	}

	h.auditService.LogRegistrationAttempt(userCtx.UserID, req.CompetitionCode, ip, userAgent, &reg.ID, "")

	c.JSON(http.StatusCreated, reg)
}

// Dashboard handles GET /api/v1/registrations/me
func (h *RegistrationHandler) Dashboard(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	dashboard, err := h.workflow.GetDashboard(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// SubmitArtifact handles POST /api/v1/registrations/me/submissions
func (h *RegistrationHandler) SubmitArtifact(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req SubmitArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reg, err := h.workflow.GetRegistrationForUser(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	sub, err := h.workflow.SubmitArtifact(reg.ID, models.Phase(req.Phase), models.Artifact{
		PrimaryURL:   req.PrimaryURL,
		SecondaryURL: req.SecondaryURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// SubmitPayment handles POST /api/v1/registrations/me/payment
func (h *RegistrationHandler) SubmitPayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reg, err := h.workflow.GetRegistrationForUser(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	payment, err := h.workflow.SubmitPayment(reg.ID, req.Method, req.ProofURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

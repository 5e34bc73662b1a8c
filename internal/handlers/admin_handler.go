package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/middleware"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/internal/services"
	"github.com/technofair/registration-backend/internal/utils"
)

// AdminHandler drives the verification queue: pending registrations,
// payments, and submissions awaiting an admin decision.
type AdminHandler struct {
	workflow         *services.RegistrationWorkflow
	registrationRepo *database.RegistrationRepository
	paymentRepo      *database.PaymentRepository
	submissionRepo   *database.SubmissionRepository
	auditService     *services.AuditService
	logger           *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	workflow *services.RegistrationWorkflow,
	registrationRepo *database.RegistrationRepository,
	paymentRepo *database.PaymentRepository,
	submissionRepo *database.SubmissionRepository,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		workflow:         workflow,
		registrationRepo: registrationRepo,
		paymentRepo:      paymentRepo,
		submissionRepo:   submissionRepo,
		auditService:     auditService,
		logger:           logger,
	}
}

// RejectRequest carries the mandatory reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReviewSubmissionRequest carries an admin submission decision
type ReviewSubmissionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=qualified rejected"`
	Notes    string `json:"notes"`
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid " + name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// ListPendingRegistrations handles GET /api/v1/admin/registrations/pending
func (h *AdminHandler) ListPendingRegistrations(c *gin.Context) {
	limit, offset := pagination(c)

	registrations, err := h.registrationRepo.ListPending(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	pending, err := h.registrationRepo.CountByStatus(models.VerificationPending)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registrations": registrations,
		"total_pending": pending,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetRegistration handles GET /api/v1/admin/registrations/:id
func (h *AdminHandler) GetRegistration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.registrationRepo.GetDetailByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Registration not found",
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ApproveRegistration handles POST /api/v1/admin/registrations/:id/approve
func (h *AdminHandler) ApproveRegistration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminCtx := middleware.MustGetUserContext(c)

	detail, err := h.workflow.Approve(id, adminCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogAdminDecision(adminCtx.UserID, "registration_approve", "registration", id,
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"team": detail.TeamName,
		})

	c.JSON(http.StatusOK, detail)
}

// RejectRegistration handles POST /api/v1/admin/registrations/:id/reject
func (h *AdminHandler) RejectRegistration(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminCtx := middleware.MustGetUserContext(c)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.workflow.Reject(id, adminCtx.UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogAdminDecision(adminCtx.UserID, "registration_reject", "registration", id,
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"team":   detail.TeamName,
			"reason": req.Reason,
		})

	c.JSON(http.StatusOK, detail)
}

// ListPendingPayments handles GET /api/v1/admin/payments/pending
func (h *AdminHandler) ListPendingPayments(c *gin.Context) {
	limit, offset := pagination(c)

	payments, err := h.paymentRepo.ListPending(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

// VerifyPayment handles POST /api/v1/admin/payments/:id/verify
func (h *AdminHandler) VerifyPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminCtx := middleware.MustGetUserContext(c)

	if err := h.workflow.VerifyPayment(id, adminCtx.UserID); err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogAdminDecision(adminCtx.UserID, "payment_verify", "payment", id,
		utils.GetRealIP(c), utils.GetUserAgent(c), nil)

	c.JSON(http.StatusOK, SuccessResponse{Message: "Payment verified"})
}

// RejectPayment handles POST /api/v1/admin/payments/:id/reject
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminCtx := middleware.MustGetUserContext(c)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.workflow.RejectPayment(id, adminCtx.UserID, req.Reason); err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogAdminDecision(adminCtx.UserID, "payment_reject", "payment", id,
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"reason": req.Reason,
		})

	c.JSON(http.StatusOK, SuccessResponse{Message: "Payment rejected"})
}

// ListPendingSubmissions handles GET /api/v1/admin/submissions/pending
func (h *AdminHandler) ListPendingSubmissions(c *gin.Context) {
	limit, offset := pagination(c)

	submissions, err := h.submissionRepo.ListPending(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": submissions,
		"limit":       limit,
		"offset":      offset,
	})
}

// ReviewSubmission handles POST /api/v1/admin/submissions/:id/review
func (h *AdminHandler) ReviewSubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminCtx := middleware.MustGetUserContext(c)

	var req ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sub, err := h.submissionRepo.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Submission not found",
		})
		return
	}

	err = h.workflow.ReviewArtifact(sub.RegistrationID, sub.Phase, models.SubmissionStatus(req.Decision), req.Notes, adminCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogAdminDecision(adminCtx.UserID, "submission_review", "submission", id,
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"decision": req.Decision,
			"phase":    sub.Phase,
		})

	c.JSON(http.StatusOK, SuccessResponse{Message: "Submission reviewed"})
}

// DashboardStats handles GET /api/v1/admin/dashboard/stats
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	pending, err := h.registrationRepo.CountByStatus(models.VerificationPending)
	if err != nil {
		respondError(c, err)
		return
	}

	approved, err := h.registrationRepo.CountByStatus(models.VerificationApproved)
	if err != nil {
		respondError(c, err)
		return
	}

	rejected, err := h.registrationRepo.CountByStatus(models.VerificationRejected)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registrations": gin.H{
			"pending":  pending,
			"approved": approved,
			"rejected": rejected,
		},
	})
}

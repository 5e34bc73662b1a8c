package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/internal/services"
)

// CompetitionHandler serves the public competition catalogue
type CompetitionHandler struct {
	competitionRepo *database.CompetitionRepository
	clock           services.Clock
	logger          *logrus.Logger
}

// NewCompetitionHandler creates a new competition handler
func NewCompetitionHandler(competitionRepo *database.CompetitionRepository, clock services.Clock, logger *logrus.Logger) *CompetitionHandler {
	return &CompetitionHandler{
		competitionRepo: competitionRepo,
		clock:           clock,
		logger:          logger,
	}
}

// CompetitionView is a competition annotated with the pricing and
// registration window state in effect right now.
type CompetitionView struct {
	models.Competition
	CurrentFeeTier   services.FeeTier `json:"current_fee_tier"`
	CurrentFee       int64            `json:"current_fee"`
	RegistrationOpen bool             `json:"registration_is_open"`
}

func (h *CompetitionHandler) view(comp *models.Competition) CompetitionView {
	now := h.clock.Now()
	tier := services.CurrentTier(now, comp.TimelineEvents)
	open := comp.IsActive &&
		!now.Before(comp.RegistrationOpen) &&
		!now.After(comp.RegistrationDeadline)

	return CompetitionView{
		Competition:      *comp,
		CurrentFeeTier:   tier,
		CurrentFee:       services.Fee(comp.Code, tier),
		RegistrationOpen: open,
	}
}

// List handles GET /api/v1/competitions
func (h *CompetitionHandler) List(c *gin.Context) {
	competitions, err := h.competitionRepo.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]CompetitionView, 0, len(competitions))
	for i := range competitions {
		views = append(views, h.view(&competitions[i]))
	}

	c.JSON(http.StatusOK, gin.H{"competitions": views})
}

// GetByCode handles GET /api/v1/competitions/:code
func (h *CompetitionHandler) GetByCode(c *gin.Context) {
	comp, err := h.competitionRepo.GetByCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	if comp == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Competition not found",
		})
		return
	}

	c.JSON(http.StatusOK, h.view(comp))
}

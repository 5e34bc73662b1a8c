package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/technofair/registration-backend/internal/models"
)

func displayStateFixture() (*models.Registration, *models.Competition) {
	reg := &models.Registration{
		VerificationStatus: models.VerificationApproved,
		CurrentPhase:       models.PhasePreliminary,
	}
	comp := &models.Competition{
		Code:                "PTC",
		PreliminaryStart:    models.NewNullTime(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		PreliminaryDeadline: models.NewNullTime(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
		SemifinalStart:      models.NewNullTime(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
		SemifinalDeadline:   models.NewNullTime(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)),
	}
	return reg, comp
}

func TestDeriveDisplayState(t *testing.T) {
	inWindow := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	beforeWindow := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	afterWindow := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	t.Run("Pending Verification Wins Over Everything", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.VerificationStatus = models.VerificationPending
		assert.Equal(t, StatePendingVerification, DeriveDisplayState(reg, comp, nil, inWindow))
	})

	t.Run("Rejected Registration", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.VerificationStatus = models.VerificationRejected
		assert.Equal(t, StateRejected, DeriveDisplayState(reg, comp, nil, inWindow))
	})

	t.Run("Payment Phase Awaits Verification", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.CurrentPhase = models.PhasePayment
		assert.Equal(t, StateAwaitingPaymentVerification, DeriveDisplayState(reg, comp, nil, inWindow))
	})

	t.Run("Approved Before Preliminary Opens", func(t *testing.T) {
		reg, comp := displayStateFixture()
		assert.Equal(t, StateAwaitingFirstSubmission, DeriveDisplayState(reg, comp, nil, beforeWindow))
	})

	t.Run("Phase Open No Submission Yet", func(t *testing.T) {
		reg, comp := displayStateFixture()
		assert.Equal(t, StatePhaseOpenForSubmission, DeriveDisplayState(reg, comp, nil, inWindow))
	})

	t.Run("Submission Under Review", func(t *testing.T) {
		reg, comp := displayStateFixture()
		subs := []models.SubmissionRecord{
			{Phase: models.PhasePreliminary, Status: models.SubmissionPending},
		}
		assert.Equal(t, StateSubmissionUnderReview, DeriveDisplayState(reg, comp, subs, inWindow))
	})

	t.Run("Rejected Submission While Window Open", func(t *testing.T) {
		reg, comp := displayStateFixture()
		subs := []models.SubmissionRecord{
			{Phase: models.PhasePreliminary, Status: models.SubmissionRejected},
		}
		assert.Equal(t, StateNeedsRevision, DeriveDisplayState(reg, comp, subs, inWindow))
	})

	t.Run("Rejected Submission After Window Closes", func(t *testing.T) {
		reg, comp := displayStateFixture()
		subs := []models.SubmissionRecord{
			{Phase: models.PhasePreliminary, Status: models.SubmissionRejected},
		}
		assert.Equal(t, StatePhaseFrozenAwaitingResults, DeriveDisplayState(reg, comp, subs, afterWindow))
	})

	t.Run("Window Closed Without Submission", func(t *testing.T) {
		reg, comp := displayStateFixture()
		assert.Equal(t, StatePhaseFrozenAwaitingResults, DeriveDisplayState(reg, comp, nil, afterWindow))
	})

	t.Run("Qualified Waiting For Semifinal To Open", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.CurrentPhase = models.PhaseSemifinal
		reg.IsPreliminaryQualified = true
		// Preliminary closed, semifinal not yet open
		now := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
		subs := []models.SubmissionRecord{
			{Phase: models.PhasePreliminary, Status: models.SubmissionQualified},
		}
		assert.Equal(t, StateQualifiedWaitingNextPhase, DeriveDisplayState(reg, comp, subs, now))
	})

	t.Run("Semifinal Open For Submission", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.CurrentPhase = models.PhaseSemifinal
		reg.IsPreliminaryQualified = true
		now := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, StatePhaseOpenForSubmission, DeriveDisplayState(reg, comp, nil, now))
	})

	t.Run("Qualified Final Submission Does Not Reopen", func(t *testing.T) {
		reg, comp := displayStateFixture()
		reg.CurrentPhase = models.PhaseFinal
		reg.IsPreliminaryQualified = true
		reg.IsSemifinalQualified = true
		comp.FinalStart = models.NewNullTime(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
		comp.FinalDeadline = models.NewNullTime(time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
		// The final keeps its qualified record as the current submission;
		// the open window must not prompt a finished team to resubmit.
		now := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
		subs := []models.SubmissionRecord{
			{Phase: models.PhaseFinal, Status: models.SubmissionQualified},
		}
		assert.Equal(t, StateQualifiedWaitingNextPhase, DeriveDisplayState(reg, comp, subs, now))
	})
}

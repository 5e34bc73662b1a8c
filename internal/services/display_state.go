package services

import (
	"time"

	"github.com/technofair/registration-backend/internal/models"
)

// DisplayState is the single derived summary of what a registration may
// currently do. Every surface (dashboard, admin views, emails) consults this
// instead of recomputing gating on its own.
type DisplayState string

const (
	StatePendingVerification        DisplayState = "pending_verification"
	StateRejected                   DisplayState = "rejected"
	StateAwaitingFirstSubmission    DisplayState = "awaiting_first_submission"
	StateSubmissionUnderReview      DisplayState = "submission_under_review"
	StateNeedsRevision              DisplayState = "needs_revision"
	StateQualifiedWaitingNextPhase  DisplayState = "qualified_waiting_next_phase"
	StatePhaseOpenForSubmission     DisplayState = "phase_open_for_submission"
	StatePhaseFrozenAwaitingResults DisplayState = "phase_frozen_awaiting_results"
	StateAwaitingPaymentVerification DisplayState = "awaiting_payment_verification"
)

// DeriveDisplayState composes the verification status, the phase gate, the
// qualification flags, and the submission record for the current phase into
// one state.
func DeriveDisplayState(reg *models.Registration, comp *models.Competition, submissions []models.SubmissionRecord, now time.Time) DisplayState {
	switch reg.VerificationStatus {
	case models.VerificationPending:
		return StatePendingVerification
	case models.VerificationRejected:
		return StateRejected
	}

	phase := reg.CurrentPhase
	if phase == models.PhasePayment {
		return StateAwaitingPaymentVerification
	}

	var current *models.SubmissionRecord
	for i := range submissions {
		if submissions[i].Phase == phase {
			current = &submissions[i]
			break
		}
	}

	gate := GateForPhase(now, comp, phase)

	if current != nil {
		switch current.Status {
		case models.SubmissionPending:
			return StateSubmissionUnderReview
		case models.SubmissionRejected:
			if gate == GateOpen {
				return StateNeedsRevision
			}
			return StatePhaseFrozenAwaitingResults
		case models.SubmissionQualified:
			// Only the final phase keeps its qualified record as the current
			// submission; earlier phases advance in the same transaction.
			return StateQualifiedWaitingNextPhase
		}
	}

	switch gate {
	case GateNotStarted:
		// Fresh approval waiting for the preliminary window differs from a
		// qualified team waiting for the next round to open.
		if phase == models.PhasePreliminary && !reg.IsPreliminaryQualified {
			return StateAwaitingFirstSubmission
		}
		return StateQualifiedWaitingNextPhase
	case GateFrozen:
		return StatePhaseFrozenAwaitingResults
	default:
		return StatePhaseOpenForSubmission
	}
}

package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/pkg/validator"
)

// RegistrationWorkflow owns the registration state machine. Every operation
// is one transaction: the read-check-write sequence and any outbox row it
// produces commit together or not at all.
type RegistrationWorkflow struct {
	db              database.DB
	registrationRepo *database.RegistrationRepository
	competitionRepo  *database.CompetitionRepository
	teamRepo         *database.TeamRepository
	paymentRepo      *database.PaymentRepository
	submissionRepo   *database.SubmissionRepository
	outboxRepo       *database.OutboxRepository
	teamValidator    *validator.TeamValidator
	clock            Clock
	logger           *logrus.Logger
}

// NewRegistrationWorkflow creates a new registration workflow service
func NewRegistrationWorkflow(
	db database.DB,
	registrationRepo *database.RegistrationRepository,
	competitionRepo *database.CompetitionRepository,
	teamRepo *database.TeamRepository,
	paymentRepo *database.PaymentRepository,
	submissionRepo *database.SubmissionRepository,
	outboxRepo *database.OutboxRepository,
	teamValidator *validator.TeamValidator,
	clock Clock,
	logger *logrus.Logger,
) *RegistrationWorkflow {
	return &RegistrationWorkflow{
		db:               db,
		registrationRepo: registrationRepo,
		competitionRepo:  competitionRepo,
		teamRepo:         teamRepo,
		paymentRepo:      paymentRepo,
		submissionRepo:   submissionRepo,
		outboxRepo:       outboxRepo,
		teamValidator:    teamValidator,
		clock:            clock,
		logger:           logger,
	}
}

// MemberInput is one team member in a registration request
type MemberInput struct {
	FullName  string `json:"full_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	StudentID string `json:"student_id"`
}

// PaymentInput is an optional fee payment proof attached at registration
type PaymentInput struct {
	Method   string `json:"method" binding:"required"`
	ProofURL string `json:"proof_url" binding:"required"`
}

// CreateRegistrationInput carries everything needed to register a team
type CreateRegistrationInput struct {
	User            *models.User
	CompetitionCode string
	TeamName        string
	Institution     string
	Members         []MemberInput
	Payment         *PaymentInput
}

// CreateRegistration registers a team for a competition. Fails with
// duplicate_registration when the user already holds a registration for any
// competition, and with registration_closed outside the registration window
// or for inactive competitions.
func (s *RegistrationWorkflow) CreateRegistration(input CreateRegistrationInput) (*models.Registration, error) {
	comp, err := s.competitionRepo.GetByCode(input.CompetitionCode)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, NewWorkflowError(ErrNotFound, "competition %s not found", input.CompetitionCode)
	}

	now := s.clock.Now()
	if !comp.IsActive {
		return nil, NewWorkflowError(ErrRegistrationClosed, "competition %s is not accepting registrations", comp.Code)
	}
	if now.Before(comp.RegistrationOpen) || now.After(comp.RegistrationDeadline) {
		return nil, NewWorkflowError(ErrRegistrationClosed, "registration for %s is closed", comp.Code)
	}

	team := &models.Team{
		Name:        input.TeamName,
		Institution: input.Institution,
	}
	for _, m := range input.Members {
		member := models.TeamMember{
			FullName: m.FullName,
			Email:    m.Email,
			Phone:    m.Phone,
			IsLeader: m.Email == input.User.Email,
		}
		if m.StudentID != "" {
			member.StudentID = models.NewNullString(m.StudentID)
		}
		team.Members = append(team.Members, member)
	}

	if err := s.teamValidator.Validate(team, comp.MinTeamSize, comp.MaxTeamSize); err != nil {
		return nil, NewWorkflowError(ErrValidation, "%s", err.Error())
	}

	tier := CurrentTier(now, comp.TimelineEvents)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.registrationRepo.ExistsForUser(tx, input.User.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewWorkflowError(ErrDuplicateRegistration, "user already holds a registration")
	}

	if err := s.teamRepo.Create(tx, team); err != nil {
		return nil, err
	}

	reg := &models.Registration{
		UserID:             input.User.ID,
		CompetitionID:      comp.ID,
		TeamID:             team.ID,
		VerificationStatus: models.VerificationPending,
		CurrentPhase:       models.PhaseRegistration,
		FeeTier:            string(tier),
		FeeAmount:          Fee(comp.Code, tier),
	}
	if err := s.registrationRepo.Create(tx, reg); err != nil {
		// The unique index on user_id closes the race two concurrent
		// registration calls would otherwise win together.
		if database.IsUniqueViolation(err, "") {
			return nil, NewWorkflowError(ErrDuplicateRegistration, "user already holds a registration")
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	if input.Payment != nil {
		payment := &models.Payment{
			RegistrationID: reg.ID,
			Amount:         reg.FeeAmount,
			Method:         input.Payment.Method,
			ProofURL:       input.Payment.ProofURL,
			Status:         models.PaymentPending,
		}
		if err := s.paymentRepo.Create(tx, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": reg.ID,
		"competition":     comp.Code,
		"team":            team.Name,
		"fee_tier":        reg.FeeTier,
	}).Info("Registration created")

	return reg, nil
}

// Approve moves a pending registration to approved and into the preliminary
// phase, and queues the approval email. Legal exactly once: a second call
// fails with invalid_transition and queues nothing.
func (s *RegistrationWorkflow) Approve(registrationID, adminID uuid.UUID) (*models.RegistrationDetail, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.registrationRepo.ApproveIfPending(tx, registrationID, adminID)
	if err != nil {
		return nil, err
	}

	detail, err := s.registrationRepo.GetDetail(tx, registrationID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, NewWorkflowError(ErrNotFound, "registration not found")
	}
	if !ok {
		return nil, NewWorkflowError(ErrInvalidTransition, "registration is %s, not pending", detail.VerificationStatus)
	}

	payload, _ := json.Marshal(map[string]string{
		"team_name":        detail.TeamName,
		"competition_name": detail.CompetitionName,
	})
	event := &models.OutboxEvent{
		EventType:      models.OutboxRegistrationApproved,
		RecipientEmail: detail.LeaderEmail,
		RecipientName:  detail.LeaderName,
		Payload:        payload,
	}
	if err := s.outboxRepo.Enqueue(tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": registrationID,
		"admin_id":        adminID,
		"team":            detail.TeamName,
	}).Info("Registration approved")

	return detail, nil
}

// Reject moves a pending registration to rejected, storing the reason
// verbatim, and queues the rejection email. Terminal: no further team action
// is possible on the registration.
func (s *RegistrationWorkflow) Reject(registrationID, adminID uuid.UUID, reason string) (*models.RegistrationDetail, error) {
	if reason == "" {
		return nil, NewWorkflowError(ErrValidation, "rejection reason is required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.registrationRepo.RejectIfPending(tx, registrationID, adminID, reason)
	if err != nil {
		return nil, err
	}

	detail, err := s.registrationRepo.GetDetail(tx, registrationID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, NewWorkflowError(ErrNotFound, "registration not found")
	}
	if !ok {
		return nil, NewWorkflowError(ErrInvalidTransition, "registration is %s, not pending", detail.VerificationStatus)
	}

	payload, _ := json.Marshal(map[string]string{
		"team_name": detail.TeamName,
		"reason":    reason,
	})
	event := &models.OutboxEvent{
		EventType:      models.OutboxRegistrationRejected,
		RecipientEmail: detail.LeaderEmail,
		RecipientName:  detail.LeaderName,
		Payload:        payload,
	}
	if err := s.outboxRepo.Enqueue(tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": registrationID,
		"admin_id":        adminID,
		"reason":          reason,
	}).Info("Registration rejected")

	return detail, nil
}

// SubmitArtifact records a team's upload for the given phase. Legal only on
// an approved registration whose current phase matches, while the phase gate
// is open, and when no pending or qualified record exists for the phase.
func (s *RegistrationWorkflow) SubmitArtifact(registrationID uuid.UUID, phase models.Phase, artifact models.Artifact) (*models.SubmissionRecord, error) {
	if artifact.PrimaryURL == "" || artifact.SecondaryURL == "" {
		return nil, NewWorkflowError(ErrValidation, "both artifact references are required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg, err := s.registrationRepo.GetByIDForUpdate(tx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewWorkflowError(ErrNotFound, "registration not found")
	}
	if reg.VerificationStatus != models.VerificationApproved {
		return nil, NewWorkflowError(ErrInvalidTransition, "registration is not approved")
	}
	if reg.CurrentPhase != phase {
		return nil, NewWorkflowError(ErrInvalidTransition, "registration is in the %s phase, not %s", reg.CurrentPhase, phase)
	}

	comp, err := s.competitionRepo.GetByID(reg.CompetitionID)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, NewWorkflowError(ErrNotFound, "competition not found")
	}

	gate := GateForPhase(s.clock.Now(), comp, phase)
	if gate != GateOpen {
		return nil, NewWorkflowError(ErrPhaseNotOpen, "%s phase is %s", phase, gate)
	}

	artifact.Kind = models.ArtifactKindForCompetition(comp.Code)

	existing, err := s.submissionRepo.GetByRegistrationAndPhase(tx, registrationID, phase)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Status != models.SubmissionRejected {
			return nil, NewWorkflowError(ErrInvalidTransition, "a %s submission already exists for the %s phase", existing.Status, phase)
		}
		replaced, err := s.submissionRepo.ReplaceIfRejected(tx, registrationID, phase, artifact)
		if err != nil {
			return nil, err
		}
		if !replaced {
			// Lost a race with a concurrent review; only rejected records
			// may be overwritten.
			return nil, NewWorkflowError(ErrInvalidTransition, "submission for the %s phase is no longer replaceable", phase)
		}
	} else {
		sub := &models.SubmissionRecord{
			RegistrationID: registrationID,
			Phase:          phase,
			ArtifactKind:   artifact.Kind,
			PrimaryURL:     artifact.PrimaryURL,
			SecondaryURL:   artifact.SecondaryURL,
			Status:         models.SubmissionPending,
		}
		if err := s.submissionRepo.Create(tx, sub); err != nil {
			if database.IsUniqueViolation(err, "") {
				return nil, NewWorkflowError(ErrInvalidTransition, "a submission already exists for the %s phase", phase)
			}
			return nil, err
		}
	}

	sub, err := s.submissionRepo.GetByRegistrationAndPhase(tx, registrationID, phase)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit submission: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": registrationID,
		"phase":           phase,
	}).Info("Artifact submitted")

	return sub, nil
}

// ReviewArtifact records an admin decision on the pending submission for a
// phase. Qualification sets the phase flag and advances the registration;
// rejection requires notes and leaves the phase unchanged so the team may
// resubmit while the gate is open.
func (s *RegistrationWorkflow) ReviewArtifact(registrationID uuid.UUID, phase models.Phase, decision models.SubmissionStatus, notes string, adminID uuid.UUID) error {
	if decision != models.SubmissionQualified && decision != models.SubmissionRejected {
		return NewWorkflowError(ErrValidation, "decision must be qualified or rejected")
	}
	if decision == models.SubmissionRejected && notes == "" {
		return NewWorkflowError(ErrValidation, "review notes are required when rejecting")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg, err := s.registrationRepo.GetByIDForUpdate(tx, registrationID)
	if err != nil {
		return err
	}
	if reg == nil {
		return NewWorkflowError(ErrNotFound, "registration not found")
	}

	sub, err := s.submissionRepo.GetByRegistrationAndPhase(tx, registrationID, phase)
	if err != nil {
		return err
	}
	if sub == nil {
		return NewWorkflowError(ErrNotFound, "no submission for the %s phase", phase)
	}

	ok, err := s.submissionRepo.ReviewIfPending(tx, sub.ID, adminID, decision, notes)
	if err != nil {
		return err
	}
	if !ok {
		return NewWorkflowError(ErrInvalidTransition, "submission is %s, not pending", sub.Status)
	}

	if decision == models.SubmissionQualified {
		comp, err := s.competitionRepo.GetByID(reg.CompetitionID)
		if err != nil {
			return err
		}
		if comp == nil {
			return NewWorkflowError(ErrNotFound, "competition not found")
		}
		next := NextPhase(comp, phase)
		advanced, err := s.registrationRepo.AdvancePhase(tx, registrationID, phase, next)
		if err != nil {
			return err
		}
		if !advanced {
			return NewWorkflowError(ErrInvalidTransition, "registration is no longer in the %s phase", phase)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"registration_id": registrationID,
		"phase":           phase,
		"decision":        decision,
		"admin_id":        adminID,
	}).Info("Submission reviewed")

	return nil
}

// SubmitPayment records a fee payment proof. Legal on an approved
// registration in the payment phase, or before verification when no proof
// was attached at registration time.
func (s *RegistrationWorkflow) SubmitPayment(registrationID uuid.UUID, method, proofURL string) (*models.Payment, error) {
	if method == "" || proofURL == "" {
		return nil, NewWorkflowError(ErrValidation, "payment method and proof are required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reg, err := s.registrationRepo.GetByIDForUpdate(tx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewWorkflowError(ErrNotFound, "registration not found")
	}
	if reg.VerificationStatus == models.VerificationRejected {
		return nil, NewWorkflowError(ErrInvalidTransition, "registration is rejected")
	}

	payment := &models.Payment{
		RegistrationID: registrationID,
		Amount:         reg.FeeAmount,
		Method:         method,
		ProofURL:       proofURL,
		Status:         models.PaymentPending,
	}
	if err := s.paymentRepo.Create(tx, payment); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, NewWorkflowError(ErrInvalidTransition, "a payment already exists for this registration")
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return payment, nil
}

// VerifyPayment marks a pending payment verified. When the registration sits
// in the payment phase the verification also advances it to the semifinal.
func (s *RegistrationWorkflow) VerifyPayment(paymentID, adminID uuid.UUID) error {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return NewWorkflowError(ErrNotFound, "payment not found")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.paymentRepo.VerifyIfPending(tx, paymentID, adminID)
	if err != nil {
		return err
	}
	if !ok {
		return NewWorkflowError(ErrInvalidTransition, "payment is not pending")
	}

	reg, err := s.registrationRepo.GetByIDForUpdate(tx, payment.RegistrationID)
	if err != nil {
		return err
	}
	if reg != nil && reg.CurrentPhase == models.PhasePayment {
		advanced, err := s.registrationRepo.AdvancePhase(tx, reg.ID, models.PhasePayment, models.PhaseSemifinal)
		if err != nil {
			return err
		}
		if !advanced {
			return NewWorkflowError(ErrInvalidTransition, "registration left the payment phase")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment verification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"admin_id":   adminID,
	}).Info("Payment verified")

	return nil
}

// RejectPayment marks a pending payment rejected with notes for the team
func (s *RegistrationWorkflow) RejectPayment(paymentID, adminID uuid.UUID, notes string) error {
	if notes == "" {
		return NewWorkflowError(ErrValidation, "rejection notes are required")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := s.paymentRepo.RejectIfPending(tx, paymentID, adminID, notes)
	if err != nil {
		return err
	}
	if !ok {
		return NewWorkflowError(ErrInvalidTransition, "payment is not pending")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment rejection: %w", err)
	}
	return nil
}

// Dashboard is everything the team dashboard needs for one registration
type Dashboard struct {
	Registration *models.Registration      `json:"registration"`
	Competition  *models.Competition       `json:"competition"`
	Team         *models.Team              `json:"team"`
	Payment      *models.Payment           `json:"payment,omitempty"`
	Submissions  []models.SubmissionRecord `json:"submissions"`
	DisplayState DisplayState              `json:"display_state"`
	PhaseGate    GateState                 `json:"phase_gate"`
	FeeTier      FeeTier                   `json:"fee_tier"`
	FeeAmount    int64                     `json:"fee_amount"`
}

// GetRegistrationForUser resolves the registration owned by a user
func (s *RegistrationWorkflow) GetRegistrationForUser(userID uuid.UUID) (*models.Registration, error) {
	reg, err := s.registrationRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewWorkflowError(ErrNotFound, "no registration for this account")
	}
	return reg, nil
}

// GetDashboard assembles the derived view for a user's registration
func (s *RegistrationWorkflow) GetDashboard(userID uuid.UUID) (*Dashboard, error) {
	reg, err := s.registrationRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, NewWorkflowError(ErrNotFound, "no registration for this account")
	}

	comp, err := s.competitionRepo.GetByID(reg.CompetitionID)
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, NewWorkflowError(ErrNotFound, "competition not found")
	}

	team, err := s.teamRepo.GetByID(reg.TeamID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissionRepo.ListByRegistration(reg.ID)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByRegistrationID(reg.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &Dashboard{
		Registration: reg,
		Competition:  comp,
		Team:         team,
		Payment:      payment,
		Submissions:  submissions,
		DisplayState: DeriveDisplayState(reg, comp, submissions, now),
		PhaseGate:    GateForPhase(now, comp, reg.CurrentPhase),
		FeeTier:      FeeTier(reg.FeeTier),
		FeeAmount:    reg.FeeAmount,
	}, nil
}

// NextPhase returns the phase a registration advances to after qualifying in
// the given phase. Fee-paying competitions insert a payment verification
// step between the preliminary and the semifinal.
func NextPhase(comp *models.Competition, phase models.Phase) models.Phase {
	switch phase {
	case models.PhasePreliminary:
		if comp.RequiresPayment {
			return models.PhasePayment
		}
		return models.PhaseSemifinal
	case models.PhasePayment:
		return models.PhaseSemifinal
	case models.PhaseSemifinal:
		return models.PhaseFinal
	}
	return phase
}

package services

import (
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technofair/registration-backend/internal/database"
	"github.com/technofair/registration-backend/internal/models"
	"github.com/technofair/registration-backend/pkg/validator"
)

var registrationColumns = []string{
	"id", "user_id", "competition_id", "team_id", "verification_status",
	"current_phase", "is_preliminary_qualified", "is_semifinal_qualified",
	"rejection_reason", "fee_tier", "fee_amount", "verified_at", "verified_by",
	"created_at", "updated_at",
}

var detailColumns = append(append([]string{}, registrationColumns...),
	"team_name", "competition_code", "competition_name", "leader_name", "leader_email")

var competitionColumns = []string{
	"id", "code", "name", "description", "is_active", "requires_payment",
	"min_team_size", "max_team_size", "registration_open", "registration_deadline",
	"preliminary_start", "preliminary_deadline", "semifinal_start", "semifinal_deadline",
	"final_start", "final_deadline", "created_at", "updated_at",
}

var timelineColumns = []string{
	"id", "competition_id", "phase", "title", "start_date", "end_date", "sort_order",
}

var submissionColumns = []string{
	"id", "registration_id", "phase", "artifact_kind", "primary_url",
	"secondary_url", "status", "review_notes", "submitted_at", "reviewed_at", "reviewed_by",
}

var paymentColumns = []string{
	"id", "registration_id", "amount", "method", "proof_url", "status",
	"rejection_notes", "submitted_at", "verified_at", "verified_by",
}

func newWorkflowMock(t *testing.T, now time.Time) (*RegistrationWorkflow, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	workflow := NewRegistrationWorkflow(
		db,
		database.NewRegistrationRepository(db),
		database.NewCompetitionRepository(db),
		database.NewTeamRepository(db),
		database.NewPaymentRepository(db),
		database.NewSubmissionRepository(db),
		database.NewOutboxRepository(db),
		validator.NewTeamValidator(),
		fixedClock{now: now},
		logger,
	)
	return workflow, mock
}

func detailRow(id uuid.UUID, status models.VerificationStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(detailColumns).AddRow(
		id.String(), uuid.New().String(), uuid.New().String(), uuid.New().String(),
		string(status), "preliminary", false, false,
		nil, "early", int64(125000), nil, nil, now, now,
		"Garuda Dev", "PTC", "Paper and Technology Competition",
		"Adi Nugroho", "adi@student.example.ac.id",
	)
}

func competitionRow(id uuid.UUID, open, deadline time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(competitionColumns).AddRow(
		id.String(), "PTC", "Paper and Technology Competition", nil, true, false,
		1, 3, open, deadline,
		nil, nil, nil, nil, nil, nil, now, now,
	)
}

func TestRegistrationWorkflow_Approve(t *testing.T) {
	regID := uuid.New()
	adminID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE registrations").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT r.id").
			WillReturnRows(detailRow(regID, models.VerificationApproved))
		mock.ExpectQuery("INSERT INTO notification_outbox").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		detail, err := workflow.Approve(regID, adminID)
		require.NoError(t, err)
		assert.Equal(t, "Garuda Dev", detail.TeamName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Approve Fails Without Queuing An Email", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE registrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT r.id").
			WillReturnRows(detailRow(regID, models.VerificationApproved))
		mock.ExpectRollback()

		_, err := workflow.Approve(regID, adminID)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Registration", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE registrations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT r.id").
			WillReturnRows(sqlmock.NewRows(detailColumns))
		mock.ExpectRollback()

		_, err := workflow.Approve(regID, adminID)
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, KindOf(err))
	})
}

func TestRegistrationWorkflow_Reject(t *testing.T) {
	regID := uuid.New()
	adminID := uuid.New()

	t.Run("Reason Is Mandatory", func(t *testing.T) {
		workflow, _ := newWorkflowMock(t, time.Now())

		_, err := workflow.Reject(regID, adminID, "")
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})

	t.Run("Success Queues Rejection Email", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE registrations").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT r.id").
			WillReturnRows(detailRow(regID, models.VerificationRejected))
		mock.ExpectQuery("INSERT INTO notification_outbox").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		detail, err := workflow.Reject(regID, adminID, "Payment proof unreadable")
		require.NoError(t, err)
		assert.Equal(t, models.VerificationRejected, detail.VerificationStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegistrationWorkflow_CreateRegistration(t *testing.T) {
	compID := uuid.New()
	userID := uuid.New()
	open := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC)

	input := CreateRegistrationInput{
		User:            &models.User{ID: userID, Email: "adi@student.example.ac.id"},
		CompetitionCode: "PTC",
		TeamName:        "Garuda Dev",
		Institution:     "Universitas Contoh",
		Members: []MemberInput{
			{FullName: "Adi Nugroho", Email: "adi@student.example.ac.id", Phone: "081234567890"},
		},
	}

	timelineRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(timelineColumns).
			AddRow(uuid.New().String(), compID.String(), models.TimelineRegistrationBatch1,
				"Batch 1", open, time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC), 1).
			AddRow(uuid.New().String(), compID.String(), models.TimelineRegistrationBatch2,
				"Batch 2", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), deadline, 2)
	}

	t.Run("Success In Early Tier", func(t *testing.T) {
		now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnRows(competitionRow(compID, open, deadline))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(timelineRows())
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO teams").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery("INSERT INTO team_members").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectQuery("INSERT INTO registrations").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		reg, err := workflow.CreateRegistration(input)
		require.NoError(t, err)
		assert.Equal(t, models.VerificationPending, reg.VerificationStatus)
		assert.Equal(t, models.PhaseRegistration, reg.CurrentPhase)
		assert.Equal(t, "early", reg.FeeTier)
		assert.Equal(t, int64(125000), reg.FeeAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Normal Tier After Batch 1", func(t *testing.T) {
		now := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnRows(competitionRow(compID, open, deadline))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(timelineRows())
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO teams").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery("INSERT INTO team_members").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
		mock.ExpectQuery("INSERT INTO registrations").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		reg, err := workflow.CreateRegistration(input)
		require.NoError(t, err)
		assert.Equal(t, "normal", reg.FeeTier)
		assert.Equal(t, int64(175000), reg.FeeAmount)
	})

	t.Run("Duplicate Registration", func(t *testing.T) {
		now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnRows(competitionRow(compID, open, deadline))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(timelineRows())
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := workflow.CreateRegistration(input)
		require.Error(t, err)
		assert.Equal(t, ErrDuplicateRegistration, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Closed After Deadline", func(t *testing.T) {
		now := deadline.Add(time.Hour)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnRows(competitionRow(compID, open, deadline))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(timelineRows())

		_, err := workflow.CreateRegistration(input)
		require.Error(t, err)
		assert.Equal(t, ErrRegistrationClosed, KindOf(err))
	})

	t.Run("Unknown Competition", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnError(sql.ErrNoRows)

		_, err := workflow.CreateRegistration(input)
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, KindOf(err))
	})

	t.Run("Database Error Is Not A Missing Competition", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := workflow.CreateRegistration(input)
		require.Error(t, err)
		assert.Equal(t, ErrorKind(""), KindOf(err))
	})

	t.Run("Invalid Team", func(t *testing.T) {
		now := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectQuery("FROM competitions WHERE code").
			WillReturnRows(competitionRow(compID, open, deadline))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(timelineRows())

		bad := input
		bad.Members = []MemberInput{
			{FullName: "Adi Nugroho", Email: "adi@student.example.ac.id", Phone: "12345"},
		}

		_, err := workflow.CreateRegistration(bad)
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})
}

func TestRegistrationWorkflow_SubmitArtifact(t *testing.T) {
	regID := uuid.New()
	compID := uuid.New()
	artifact := models.Artifact{
		PrimaryURL:   "https://drive.example.com/paper.pdf",
		SecondaryURL: "https://drive.example.com/slides.pdf",
	}

	registrationRow := func(status, phase string) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(registrationColumns).AddRow(
			regID.String(), uuid.New().String(), compID.String(), uuid.New().String(),
			status, phase, false, false,
			nil, "early", int64(125000), nil, nil, now, now,
		)
	}

	// Competition with the preliminary window configured
	preliminaryComp := func(start, end time.Time) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(competitionColumns).AddRow(
			compID.String(), "PTC", "Paper and Technology Competition", nil, true, false,
			1, 3,
			time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			start, end, nil, nil, nil, nil, now, now,
		)
	}

	prelimStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prelimEnd := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Both References Required", func(t *testing.T) {
		workflow, _ := newWorkflowMock(t, time.Now())

		_, err := workflow.SubmitArtifact(regID, models.PhasePreliminary, models.Artifact{PrimaryURL: "https://a"})
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})

	t.Run("Rejected Registration Cannot Submit", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, prelimStart.Add(24*time.Hour))

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("rejected", "registration"))
		mock.ExpectRollback()

		_, err := workflow.SubmitArtifact(regID, models.PhaseRegistration, artifact)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Superseded Phase Rejects Upload", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, prelimStart.Add(24*time.Hour))

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("approved", "semifinal"))
		mock.ExpectRollback()

		_, err := workflow.SubmitArtifact(regID, models.PhasePreliminary, artifact)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Frozen Phase Rejects Upload", func(t *testing.T) {
		now := prelimEnd.Add(24 * time.Hour)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("approved", "preliminary"))
		mock.ExpectQuery("FROM competitions WHERE id").
			WillReturnRows(preliminaryComp(prelimStart, prelimEnd))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(sqlmock.NewRows(timelineColumns))
		mock.ExpectRollback()

		_, err := workflow.SubmitArtifact(regID, models.PhasePreliminary, artifact)
		require.Error(t, err)
		assert.Equal(t, ErrPhaseNotOpen, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Pending Submission Cannot Be Replaced", func(t *testing.T) {
		now := prelimStart.Add(24 * time.Hour)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("approved", "preliminary"))
		mock.ExpectQuery("FROM competitions WHERE id").
			WillReturnRows(preliminaryComp(prelimStart, prelimEnd))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(sqlmock.NewRows(timelineColumns))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(sqlmock.NewRows(submissionColumns).AddRow(
				uuid.New().String(), regID.String(), "preliminary", "paper_presentation",
				"https://old/paper.pdf", "https://old/slides.pdf", "pending",
				nil, time.Now(), nil, nil,
			))
		mock.ExpectRollback()

		_, err := workflow.SubmitArtifact(regID, models.PhasePreliminary, artifact)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
	})

	t.Run("Rejected Submission Is Replaced While Open", func(t *testing.T) {
		now := prelimStart.Add(24 * time.Hour)
		workflow, mock := newWorkflowMock(t, now)

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("approved", "preliminary"))
		mock.ExpectQuery("FROM competitions WHERE id").
			WillReturnRows(preliminaryComp(prelimStart, prelimEnd))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(sqlmock.NewRows(timelineColumns))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(sqlmock.NewRows(submissionColumns).AddRow(
				uuid.New().String(), regID.String(), "preliminary", "paper_presentation",
				"https://old/paper.pdf", "https://old/slides.pdf", "rejected",
				"blurry scan", time.Now(), time.Now(), nil,
			))
		mock.ExpectExec("UPDATE submissions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(sqlmock.NewRows(submissionColumns).AddRow(
				uuid.New().String(), regID.String(), "preliminary", "paper_presentation",
				artifact.PrimaryURL, artifact.SecondaryURL, "pending",
				nil, time.Now(), nil, nil,
			))
		mock.ExpectCommit()

		sub, err := workflow.SubmitArtifact(regID, models.PhasePreliminary, artifact)
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionPending, sub.Status)
		assert.Equal(t, artifact.PrimaryURL, sub.PrimaryURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegistrationWorkflow_ReviewArtifact(t *testing.T) {
	regID := uuid.New()
	compID := uuid.New()
	adminID := uuid.New()

	registrationRow := func(phase string) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(registrationColumns).AddRow(
			regID.String(), uuid.New().String(), compID.String(), uuid.New().String(),
			"approved", phase, false, false,
			nil, "early", int64(150000), nil, nil, now, now,
		)
	}

	submissionRow := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows(submissionColumns).AddRow(
			uuid.New().String(), regID.String(), "preliminary", "business_plan_pitch_deck",
			"https://drive.example.com/plan.pdf", "https://drive.example.com/deck.pdf", status,
			nil, time.Now(), nil, nil,
		)
	}

	compRow := func(requiresPayment bool) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(competitionColumns).AddRow(
			compID.String(), "BCC", "Business Case Competition", nil, true, requiresPayment,
			1, 3,
			time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			nil, nil, nil, nil, nil, nil, now, now,
		)
	}

	t.Run("Qualification Advances Paid Competition To Payment Phase", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("preliminary"))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(submissionRow("pending"))
		mock.ExpectExec("UPDATE submissions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM competitions WHERE id").
			WillReturnRows(compRow(true))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(sqlmock.NewRows(timelineColumns))
		mock.ExpectExec("UPDATE registrations").
			WithArgs(regID, models.PhasePreliminary, models.PhasePayment).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionQualified, "", adminID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Qualification Advances Free Competition To Semifinal", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("preliminary"))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(submissionRow("pending"))
		mock.ExpectExec("UPDATE submissions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM competitions WHERE id").
			WillReturnRows(compRow(false))
		mock.ExpectQuery("SELECT id, competition_id, phase").
			WillReturnRows(sqlmock.NewRows(timelineColumns))
		mock.ExpectExec("UPDATE registrations").
			WithArgs(regID, models.PhasePreliminary, models.PhaseSemifinal).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionQualified, "", adminID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rejection Requires Notes", func(t *testing.T) {
		workflow, _ := newWorkflowMock(t, time.Now())

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionRejected, "", adminID)
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})

	t.Run("Invalid Decision", func(t *testing.T) {
		workflow, _ := newWorkflowMock(t, time.Now())

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionStatus("maybe"), "notes", adminID)
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})

	t.Run("Rejection Leaves The Phase Unchanged", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("preliminary"))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(submissionRow("pending"))
		mock.ExpectExec("UPDATE submissions").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionRejected, "Unreadable figures", adminID)
		require.NoError(t, err)
		// No registrations update was expected: the phase must not move
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Reviewed Submission", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("preliminary"))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(submissionRow("qualified"))
		mock.ExpectExec("UPDATE submissions").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionQualified, "", adminID)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Submission For The Phase", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("preliminary"))
		mock.ExpectQuery("FROM submissions WHERE registration_id").
			WillReturnRows(sqlmock.NewRows(submissionColumns))
		mock.ExpectRollback()

		err := workflow.ReviewArtifact(regID, models.PhasePreliminary, models.SubmissionQualified, "", adminID)
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, KindOf(err))
	})
}

func TestRegistrationWorkflow_VerifyPayment(t *testing.T) {
	paymentID := uuid.New()
	regID := uuid.New()
	adminID := uuid.New()

	paymentRow := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows(paymentColumns).AddRow(
			paymentID.String(), regID.String(), int64(200000), "bank_transfer",
			"https://drive.example.com/proof.jpg", status, nil, time.Now(), nil, nil,
		)
	}

	registrationRow := func(phase string) *sqlmock.Rows {
		now := time.Now()
		return sqlmock.NewRows(registrationColumns).AddRow(
			regID.String(), uuid.New().String(), uuid.New().String(), uuid.New().String(),
			"approved", phase, true, false,
			nil, "normal", int64(200000), nil, nil, now, now,
		)
	}

	t.Run("Verification Advances Payment Phase To Semifinal", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM payments").
			WillReturnRows(paymentRow("pending"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("payment"))
		mock.ExpectExec("UPDATE registrations").
			WithArgs(regID, models.PhasePayment, models.PhaseSemifinal).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := workflow.VerifyPayment(paymentID, adminID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Registration Outside Payment Phase Is Left Alone", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM payments").
			WillReturnRows(paymentRow("pending"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM registrations WHERE id = .1 FOR UPDATE").
			WillReturnRows(registrationRow("registration"))
		mock.ExpectCommit()

		err := workflow.VerifyPayment(paymentID, adminID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Verified Payment", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM payments").
			WillReturnRows(paymentRow("verified"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := workflow.VerifyPayment(paymentID, adminID)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Payment", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM payments").
			WillReturnRows(sqlmock.NewRows(paymentColumns))

		err := workflow.VerifyPayment(paymentID, adminID)
		require.Error(t, err)
		assert.Equal(t, ErrNotFound, KindOf(err))
	})

	t.Run("Database Error Is Not A Missing Payment", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectQuery("FROM payments").
			WillReturnError(fmt.Errorf("connection reset"))

		err := workflow.VerifyPayment(paymentID, adminID)
		require.Error(t, err)
		assert.Equal(t, ErrorKind(""), KindOf(err))
	})
}

func TestRegistrationWorkflow_RejectPayment(t *testing.T) {
	paymentID := uuid.New()
	adminID := uuid.New()

	t.Run("Notes Are Mandatory", func(t *testing.T) {
		workflow, _ := newWorkflowMock(t, time.Now())

		err := workflow.RejectPayment(paymentID, adminID, "")
		require.Error(t, err)
		assert.Equal(t, ErrValidation, KindOf(err))
	})

	t.Run("Pending Payment Is Rejected", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := workflow.RejectPayment(paymentID, adminID, "Amount does not match the fee")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Rejected Payment", func(t *testing.T) {
		workflow, mock := newWorkflowMock(t, time.Now())

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE payments").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := workflow.RejectPayment(paymentID, adminID, "Amount does not match the fee")
		require.Error(t, err)
		assert.Equal(t, ErrInvalidTransition, KindOf(err))
	})
}

func TestNextPhase(t *testing.T) {
	paid := &models.Competition{RequiresPayment: true}
	free := &models.Competition{RequiresPayment: false}

	assert.Equal(t, models.PhasePayment, NextPhase(paid, models.PhasePreliminary))
	assert.Equal(t, models.PhaseSemifinal, NextPhase(free, models.PhasePreliminary))
	assert.Equal(t, models.PhaseSemifinal, NextPhase(paid, models.PhasePayment))
	assert.Equal(t, models.PhaseFinal, NextPhase(paid, models.PhaseSemifinal))
	assert.Equal(t, models.PhaseFinal, NextPhase(free, models.PhaseFinal))
}

package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/technofair/registration-backend/internal/models"
)

var testRegistrationColumns = []string{
	"id", "user_id", "competition_id", "team_id", "verification_status",
	"current_phase", "is_preliminary_qualified", "is_semifinal_qualified",
	"rejection_reason", "fee_tier", "fee_amount", "verified_at", "verified_by",
	"created_at", "updated_at",
}

func TestRegistrationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)

	reg := &models.Registration{
		UserID:             uuid.New(),
		CompetitionID:      uuid.New(),
		TeamID:             uuid.New(),
		VerificationStatus: models.VerificationPending,
		CurrentPhase:       models.PhaseRegistration,
		FeeTier:            "early",
		FeeAmount:          150000,
	}

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO registrations`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(mockDB, reg)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, reg.ID)
		assert.Equal(t, now, reg.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO registrations`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Create(mockDB, reg)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegistrationRepository_ExistsForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)
	userID := uuid.New()

	t.Run("Exists", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.ExistsForUser(mockDB, userID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Does Not Exist", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.ExistsForUser(mockDB, userID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRegistrationRepository_GetByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		regID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`FROM registrations WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(testRegistrationColumns).AddRow(
				regID, userID, uuid.New(), uuid.New(), "approved", "preliminary",
				false, false, nil, "early", int64(150000), nil, nil, now, now,
			))

		reg, err := repo.GetByUserID(userID)
		require.NoError(t, err)
		require.NotNil(t, reg)
		assert.Equal(t, regID, reg.ID)
		assert.Equal(t, models.VerificationApproved, reg.VerificationStatus)
		assert.Equal(t, models.PhasePreliminary, reg.CurrentPhase)
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`FROM registrations WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(testRegistrationColumns))

		reg, err := repo.GetByUserID(userID)
		require.NoError(t, err)
		assert.Nil(t, reg)
	})

	t.Run("Verified By Is Parsed", func(t *testing.T) {
		adminID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`FROM registrations WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(testRegistrationColumns).AddRow(
				uuid.New(), userID, uuid.New(), uuid.New(), "approved", "preliminary",
				false, false, nil, "early", int64(150000), now, adminID.String(), now, now,
			))

		reg, err := repo.GetByUserID(userID)
		require.NoError(t, err)
		require.NotNil(t, reg.VerifiedBy)
		assert.Equal(t, adminID, *reg.VerifiedBy)
		assert.True(t, reg.VerifiedAt.Valid)
	})
}

func TestRegistrationRepository_ApproveIfPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)
	regID := uuid.New()
	adminID := uuid.New()

	t.Run("Pending Registration Is Approved", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registrations`).
			WithArgs(regID, adminID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.ApproveIfPending(mockDB, regID, adminID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Non Pending Registration Is Untouched", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registrations`).
			WithArgs(regID, adminID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.ApproveIfPending(mockDB, regID, adminID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registrations`).
			WithArgs(regID, adminID).
			WillReturnError(fmt.Errorf("database error"))

		_, err := repo.ApproveIfPending(mockDB, regID, adminID)
		assert.Error(t, err)
	})
}

func TestRegistrationRepository_AdvancePhase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)
	regID := uuid.New()

	t.Run("Advances From Current Phase", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registrations`).
			WithArgs(regID, models.PhasePreliminary, models.PhaseSemifinal).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.AdvancePhase(mockDB, regID, models.PhasePreliminary, models.PhaseSemifinal)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Stale Phase Guard Holds", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registrations`).
			WithArgs(regID, models.PhasePreliminary, models.PhaseSemifinal).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.AdvancePhase(mockDB, regID, models.PhasePreliminary, models.PhaseSemifinal)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRegistrationRepository_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewRegistrationRepository(mockDB)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations`).
		WithArgs(models.VerificationPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.CountByStatus(models.VerificationPending)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Begin() (Tx, error) {
	return m.db.Begin()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

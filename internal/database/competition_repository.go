package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// CompetitionRepository handles database operations for competitions and
// their timeline events
type CompetitionRepository struct {
	db DB
}

// NewCompetitionRepository creates a new CompetitionRepository
func NewCompetitionRepository(db DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

const competitionColumns = `
	id, code, name, description, is_active, requires_payment,
	min_team_size, max_team_size, registration_open, registration_deadline,
	preliminary_start, preliminary_deadline, semifinal_start, semifinal_deadline,
	final_start, final_deadline, created_at, updated_at
`

// GetByCode retrieves a competition by its unique code, including its
// ordered timeline events. Returns nil when no competition has the code.
func (r *CompetitionRepository) GetByCode(code string) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE code = $1`

	comp, err := r.scanCompetition(r.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competition: %w", err)
	}

	if err := r.loadTimeline(comp); err != nil {
		return nil, err
	}
	return comp, nil
}

// GetByID retrieves a competition by ID, including its timeline events.
// Returns nil when the competition does not exist.
func (r *CompetitionRepository) GetByID(id uuid.UUID) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`

	comp, err := r.scanCompetition(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competition: %w", err)
	}

	if err := r.loadTimeline(comp); err != nil {
		return nil, err
	}
	return comp, nil
}

// ListActive returns all active competitions ordered by code
func (r *CompetitionRepository) ListActive() ([]models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE is_active = true ORDER BY code`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	defer rows.Close()

	competitions := []models.Competition{}
	for rows.Next() {
		comp, err := r.scanCompetitionRows(rows)
		if err != nil {
			return nil, err
		}
		competitions = append(competitions, *comp)
	}
	return competitions, rows.Err()
}

// loadTimeline attaches the ordered timeline events to a competition
func (r *CompetitionRepository) loadTimeline(comp *models.Competition) error {
	query := `
		SELECT id, competition_id, phase, title, start_date, end_date, sort_order
		FROM timeline_events
		WHERE competition_id = $1
		ORDER BY sort_order
	`

	rows, err := r.db.Query(query, comp.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch timeline events: %w", err)
	}
	defer rows.Close()

	events := []models.TimelineEvent{}
	for rows.Next() {
		var ev models.TimelineEvent
		err := rows.Scan(&ev.ID, &ev.CompetitionID, &ev.Phase, &ev.Title,
			&ev.StartDate, &ev.EndDate, &ev.SortOrder)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}
	comp.TimelineEvents = events
	return rows.Err()
}

func (r *CompetitionRepository) scanCompetition(row scanner) (*models.Competition, error) {
	comp := &models.Competition{}
	err := row.Scan(
		&comp.ID, &comp.Code, &comp.Name, &comp.Description,
		&comp.IsActive, &comp.RequiresPayment,
		&comp.MinTeamSize, &comp.MaxTeamSize,
		&comp.RegistrationOpen, &comp.RegistrationDeadline,
		&comp.PreliminaryStart, &comp.PreliminaryDeadline,
		&comp.SemifinalStart, &comp.SemifinalDeadline,
		&comp.FinalStart, &comp.FinalDeadline,
		&comp.CreatedAt, &comp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return comp, nil
}

func (r *CompetitionRepository) scanCompetitionRows(rows *sql.Rows) (*models.Competition, error) {
	return r.scanCompetition(rows)
}

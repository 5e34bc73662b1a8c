package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/technofair/registration-backend/internal/models"
)

// TeamRepository handles database operations for teams and team members
type TeamRepository struct {
	db DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team and its members inside the given transaction
func (r *TeamRepository) Create(tx Execer, team *models.Team) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}

	query := `
		INSERT INTO teams (id, name, institution)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(query, team.ID, team.Name, team.Institution).
		Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	memberQuery := `
		INSERT INTO team_members (id, team_id, full_name, email, phone, is_leader, student_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	for i := range team.Members {
		member := &team.Members[i]
		if member.ID == uuid.Nil {
			member.ID = uuid.New()
		}
		member.TeamID = team.ID
		err := tx.QueryRow(memberQuery,
			member.ID, member.TeamID, member.FullName, member.Email,
			member.Phone, member.IsLeader, member.StudentID,
		).Scan(&member.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create team member: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a team with its members
func (r *TeamRepository) GetByID(id uuid.UUID) (*models.Team, error) {
	team := &models.Team{}
	query := `SELECT id, name, institution, created_at, updated_at FROM teams WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&team.ID, &team.Name, &team.Institution, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("team not found: %w", err)
	}

	memberQuery := `
		SELECT id, team_id, full_name, email, phone, is_leader, student_id, created_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY is_leader DESC, created_at
	`
	rows, err := r.db.Query(memberQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var member models.TeamMember
		err := rows.Scan(&member.ID, &member.TeamID, &member.FullName,
			&member.Email, &member.Phone, &member.IsLeader,
			&member.StudentID, &member.CreatedAt)
		if err != nil {
			return nil, err
		}
		team.Members = append(team.Members, member)
	}

	return team, rows.Err()
}

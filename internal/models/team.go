package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is the group competing under one registration. Member count bounds
// come from the competition (e.g. exactly 3 for PTC, 1-3 for TPC, 3-5 for BCC).
type Team struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Institution string    `json:"institution" db:"institution"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

// TeamMember is one member of a team. Exactly one member is the leader,
// identified by matching the registering user's email.
type TeamMember struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TeamID    uuid.UUID `json:"team_id" db:"team_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	IsLeader  bool      `json:"is_leader" db:"is_leader"`
	StudentID NullString `json:"student_id,omitempty" db:"student_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Leader returns the leader member, or nil when the roster is malformed.
func (t *Team) Leader() *TeamMember {
	for i := range t.Members {
		if t.Members[i].IsLeader {
			return &t.Members[i]
		}
	}
	return nil
}

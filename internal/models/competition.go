package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase identifies one stage of a registration's lifecycle
type Phase string

const (
	PhaseRegistration Phase = "registration"
	PhasePreliminary  Phase = "preliminary"
	PhasePayment      Phase = "payment"
	PhaseSemifinal    Phase = "semifinal"
	PhaseFinal        Phase = "final"
)

// Timeline event phase codes used for batch pricing
const (
	TimelineRegistrationBatch1 = "registration_batch_1"
	TimelineRegistrationBatch2 = "registration_batch_2"
)

// Competition represents one published competition (e.g. BCC, TPC, PTC).
// Date pairs define the submission window for each judged phase; final
// dates are optional because some competitions stop at the semifinal.
type Competition struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	Code                 string     `json:"code" db:"code"`
	Name                 string     `json:"name" db:"name"`
	Description          NullString `json:"description,omitempty" db:"description"`
	IsActive             bool       `json:"is_active" db:"is_active"`
	RequiresPayment      bool       `json:"requires_payment" db:"requires_payment"`
	MinTeamSize          int        `json:"min_team_size" db:"min_team_size"`
	MaxTeamSize          int        `json:"max_team_size" db:"max_team_size"`
	RegistrationOpen     time.Time  `json:"registration_open" db:"registration_open"`
	RegistrationDeadline time.Time  `json:"registration_deadline" db:"registration_deadline"`
	PreliminaryStart     NullTime   `json:"preliminary_start,omitempty" db:"preliminary_start"`
	PreliminaryDeadline  NullTime   `json:"preliminary_deadline,omitempty" db:"preliminary_deadline"`
	SemifinalStart       NullTime   `json:"semifinal_start,omitempty" db:"semifinal_start"`
	SemifinalDeadline    NullTime   `json:"semifinal_deadline,omitempty" db:"semifinal_deadline"`
	FinalStart           NullTime   `json:"final_start,omitempty" db:"final_start"`
	FinalDeadline        NullTime   `json:"final_deadline,omitempty" db:"final_deadline"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`

	// Loaded separately by the competition repository
	TimelineEvents []TimelineEvent `json:"timeline_events,omitempty" db:"-"`
}

// TimelineEvent is one ordered marker on a competition's timeline. Events
// tagged registration_batch_1/registration_batch_2 drive fee tiering.
type TimelineEvent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CompetitionID uuid.UUID `json:"competition_id" db:"competition_id"`
	Phase         string    `json:"phase" db:"phase"`
	Title         string    `json:"title" db:"title"`
	StartDate     time.Time `json:"start_date" db:"start_date"`
	EndDate       time.Time `json:"end_date" db:"end_date"`
	SortOrder     int       `json:"sort_order" db:"sort_order"`
}

// PhaseWindow returns the configured start/deadline pair for a judged phase.
// Either value may be invalid when the phase is not configured.
func (c *Competition) PhaseWindow(phase Phase) (start, deadline NullTime) {
	switch phase {
	case PhasePreliminary:
		return c.PreliminaryStart, c.PreliminaryDeadline
	case PhaseSemifinal:
		return c.SemifinalStart, c.SemifinalDeadline
	case PhaseFinal:
		return c.FinalStart, c.FinalDeadline
	}
	return NullTime{}, NullTime{}
}

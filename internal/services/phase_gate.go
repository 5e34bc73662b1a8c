package services

import (
	"time"

	"github.com/technofair/registration-backend/internal/models"
)

// GateState classifies a phase's submission window at a point in time
type GateState string

const (
	GateNotStarted GateState = "not_started"
	GateOpen       GateState = "open"
	GateFrozen     GateState = "frozen"
)

// Gate classifies now against a phase window. The three states partition
// the timeline: before start, within [start, deadline], after deadline.
func Gate(now, start, deadline time.Time) GateState {
	if now.Before(start) {
		return GateNotStarted
	}
	if now.After(deadline) {
		return GateFrozen
	}
	return GateOpen
}

// GateForPhase evaluates the gate for one judged phase of a competition.
// A phase with no configured window (e.g. a competition without a final
// round) is perpetually NotStarted until dates are set, never Open.
func GateForPhase(now time.Time, comp *models.Competition, phase models.Phase) GateState {
	start, deadline := comp.PhaseWindow(phase)
	if !start.Valid || !deadline.Valid {
		return GateNotStarted
	}
	return Gate(now, start.Time, deadline.Time)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the judged state of a submission record
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionQualified SubmissionStatus = "qualified"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// ArtifactKind tags the artifact shape a competition expects. Each
// competition code maps to exactly one kind.
type ArtifactKind string

const (
	ArtifactPaperPresentation     ArtifactKind = "paper_presentation"
	ArtifactBusinessPlanPitchDeck ArtifactKind = "business_plan_pitch_deck"
	ArtifactProposalVideo         ArtifactKind = "proposal_video"
)

// ArtifactKindForCompetition returns the artifact variant for a competition
// code. Unknown codes fall back to paper+presentation.
func ArtifactKindForCompetition(code string) ArtifactKind {
	switch code {
	case "BCC":
		return ArtifactBusinessPlanPitchDeck
	case "TPC":
		return ArtifactProposalVideo
	default:
		return ArtifactPaperPresentation
	}
}

// Artifact is the pair of references a team uploads for one phase. The
// meaning of the two URLs depends on Kind: paper/presentation for PTC,
// business plan/pitch deck for BCC, proposal/video for TPC.
type Artifact struct {
	Kind         ArtifactKind `json:"kind" db:"artifact_kind"`
	PrimaryURL   string       `json:"primary_url" db:"primary_url"`
	SecondaryURL string       `json:"secondary_url" db:"secondary_url"`
}

// SubmissionRecord tracks one artifact upload per phase. A record may be
// replaced by its team only while status is rejected and the phase is still
// open; once qualified it is immutable.
type SubmissionRecord struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	RegistrationID uuid.UUID        `json:"registration_id" db:"registration_id"`
	Phase          Phase            `json:"phase" db:"phase"`
	ArtifactKind   ArtifactKind     `json:"artifact_kind" db:"artifact_kind"`
	PrimaryURL     string           `json:"primary_url" db:"primary_url"`
	SecondaryURL   string           `json:"secondary_url" db:"secondary_url"`
	Status         SubmissionStatus `json:"status" db:"status"`
	ReviewNotes    NullString       `json:"review_notes,omitempty" db:"review_notes"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
	ReviewedAt     NullTime         `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy     *uuid.UUID       `json:"reviewed_by,omitempty" db:"reviewed_by"`
}

package services

import (
	"time"

	"github.com/technofair/registration-backend/internal/models"
)

// FeeTier is the registration price tier in effect at a point in time
type FeeTier string

const (
	TierEarly  FeeTier = "early"
	TierNormal FeeTier = "normal"
)

// feeTable maps competition code and tier to the registration fee in IDR.
// Two tiers per competition.
var feeTable = map[string]map[FeeTier]int64{
	"BCC": {TierEarly: 150000, TierNormal: 200000},
	"TPC": {TierEarly: 100000, TierNormal: 150000},
	"PTC": {TierEarly: 125000, TierNormal: 175000},
}

// CurrentTier derives the fee tier from the registration batch markers on a
// competition's timeline. The tier is early through the end of batch 1 and
// normal afterwards; the gap between batch 1 and batch 2 also resolves to
// normal, since registration openness is governed separately by the
// registration window. Missing markers fail open to early.
func CurrentTier(now time.Time, events []models.TimelineEvent) FeeTier {
	var batch1, batch2 *models.TimelineEvent
	for i := range events {
		switch events[i].Phase {
		case models.TimelineRegistrationBatch1:
			batch1 = &events[i]
		case models.TimelineRegistrationBatch2:
			batch2 = &events[i]
		}
	}

	if batch1 == nil || batch2 == nil {
		return TierEarly
	}

	if !now.After(batch1.EndDate) {
		return TierEarly
	}
	return TierNormal
}

// Fee returns the registration fee for a competition code at a tier.
// Unknown codes return 0; callers validate codes before pricing.
func Fee(competitionCode string, tier FeeTier) int64 {
	tiers, ok := feeTable[competitionCode]
	if !ok {
		return 0
	}
	return tiers[tier]
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/technofair/registration-backend/internal/models"
)

func batchEvents() []models.TimelineEvent {
	return []models.TimelineEvent{
		{
			Phase:     models.TimelineRegistrationBatch1,
			StartDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			Phase:     models.TimelineRegistrationBatch2,
			StartDate: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC),
		},
	}
}

func TestCurrentTier(t *testing.T) {
	events := batchEvents()

	tests := []struct {
		name     string
		now      time.Time
		expected FeeTier
	}{
		{"During Batch 1", time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC), TierEarly},
		{"At Batch 1 End", time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC), TierEarly},
		{"Gap Between Batches", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), TierNormal},
		{"During Batch 2", time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC), TierNormal},
		{"After Batch 2", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), TierNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CurrentTier(tt.now, events))
		})
	}

	t.Run("Missing Batch Markers Fail Open To Early", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, TierEarly, CurrentTier(now, nil))
		assert.Equal(t, TierEarly, CurrentTier(now, events[:1]))
	})
}

func TestFee(t *testing.T) {
	tests := []struct {
		code     string
		tier     FeeTier
		expected int64
	}{
		{"BCC", TierEarly, 150000},
		{"BCC", TierNormal, 200000},
		{"TPC", TierEarly, 100000},
		{"TPC", TierNormal, 150000},
		{"PTC", TierEarly, 125000},
		{"PTC", TierNormal, 175000},
		{"UNKNOWN", TierEarly, 0},
	}

	for _, tt := range tests {
		t.Run(tt.code+" "+string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.expected, Fee(tt.code, tt.tier))
		})
	}
}

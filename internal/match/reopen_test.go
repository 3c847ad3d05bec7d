package match

import (
	"testing"
	"time"

	"github.com/fixcity/api/internal/model"
	"github.com/stretchr/testify/assert"
)

func resolvedCandidate(updatedAgo time.Duration, now time.Time) *model.Report {
	c := newReport("resolved", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0)
	c.Status = model.StatusResolved
	c.UpdatedAt = now.Add(-updatedAgo)
	return c
}

func TestWithinReopenWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, WithinReopenWindow(now.Add(-6*24*time.Hour), now))
	assert.True(t, WithinReopenWindow(now.Add(-7*24*time.Hour), now))
	assert.False(t, WithinReopenWindow(now.Add(-8*24*time.Hour), now))
}

func TestDecideResolved(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	similar := newReport("new", "pothole", "big pothole near the bus stop blocking traffic", 12.0002, 77.0)
	dissimilar := newReport("new", "pothole", "completely different issue entirely", 12.0002, 77.0)

	tests := []struct {
		name      string
		candidate *model.Report
		report    *model.Report
		expected  ResolvedDecision
	}{
		{
			name:      "recent and very similar reopens",
			candidate: resolvedCandidate(6*24*time.Hour, now),
			report:    similar,
			expected:  DecisionReopen,
		},
		{
			name:      "stale but very similar merges",
			candidate: resolvedCandidate(8*24*time.Hour, now),
			report:    similar,
			expected:  DecisionMerge,
		},
		{
			name:      "dissimilar is new regardless of age",
			candidate: resolvedCandidate(1*time.Hour, now),
			report:    dissimilar,
			expected:  DecisionNew,
		},
		{
			name:      "missing updated_at cannot evaluate recency",
			candidate: newReport("resolved", "pothole", "big pothole near the bus stop", 12.0, 77.0),
			report:    similar,
			expected:  DecisionNew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecideResolved(tt.candidate, tt.report, now))
		})
	}
}

func TestDecideResolved_StrictThresholdsForSanitation(t *testing.T) {
	// The live matcher relaxes sanitation to 300 m with no text check; the
	// resolved path deliberately does not. A sanitation pair at ~200 m with
	// no text overlap reopens nothing.
	now := time.Now()

	candidate := newReport("resolved", "garbage", "bin overflowing", 12.0, 77.0)
	candidate.Status = model.StatusResolved
	candidate.UpdatedAt = now.Add(-24 * time.Hour)

	report := newReport("new", "garbage", "completely unrelated words", 12.0018, 77.0) // ~200 m

	assert.Equal(t, DecisionNew, DecideResolved(candidate, report, now))
}

func TestDecideResolved_SimilarityStrictlyGreaterThanFloor(t *testing.T) {
	now := time.Now()

	// Exactly 0.4 overlap: two token sets of 5 sharing 2... that gives 2/8.
	// Build exactly 0.4: |A|=4, |B|=4, shared=... 0.4 = 2/5 → sets of 3 and 4
	// sharing 2 (union 5). The strict > comparison must reject it.
	candidate := newReport("resolved", "pothole", "pothole cracked asphalt", 12.0, 77.0)
	candidate.Status = model.StatusResolved
	candidate.UpdatedAt = now.Add(-24 * time.Hour)

	report := newReport("new", "pothole", "pothole asphalt sinking edge", 12.0001, 77.0)

	assert.InDelta(t, 0.4, TextSimilarity(candidate.Description, report.Description), 1e-9)
	assert.Equal(t, DecisionNew, DecideResolved(candidate, report, now))
}

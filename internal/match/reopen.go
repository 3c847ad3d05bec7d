package match

import (
	"time"

	"github.com/fixcity/api/internal/model"
)

// ReopenWindow is how long after resolution a very similar new report is
// treated as a recurrence of the same case rather than a fresh issue.
const ReopenWindow = 7 * 24 * time.Hour

// ResolvedDecision is the outcome for a new report matching an already
// resolved candidate.
type ResolvedDecision string

const (
	// DecisionReopen: the fix failed or the problem recurred quickly; resume
	// the same case, preserving officer context.
	DecisionReopen ResolvedDecision = "reopen"
	// DecisionMerge: same issue, but enough time passed that it reads as a
	// fresh duplicate with new priority context.
	DecisionMerge ResolvedDecision = "merge"
	// DecisionNew: insufficiently similar; let it stand as an unrelated
	// report.
	DecisionNew ResolvedDecision = "new"
)

// WithinReopenWindow reports whether now is at most ReopenWindow after
// resolvedAt.
func WithinReopenWindow(resolvedAt, now time.Time) bool {
	return now.Sub(resolvedAt) <= ReopenWindow
}

// DecideResolved decides what to do with a new report whose best duplicate
// candidate has already been resolved. UpdatedAt is the authoritative "last
// status change" marker; without it recency cannot be evaluated and the report
// stands alone.
//
// Similarity here always uses the strict 100 m / 0.4 thresholds, even for
// sanitation-bucket categories. Resolved-issue reopening is deliberately
// stricter than live duplicate matching.
func DecideResolved(candidate, report *model.Report, now time.Time) ResolvedDecision {
	if candidate == nil || report == nil || candidate.UpdatedAt.IsZero() {
		return DecisionNew
	}
	if !candidate.HasCoordinates() || !report.HasCoordinates() {
		return DecisionNew
	}

	withinWindow := WithinReopenWindow(candidate.UpdatedAt, now)

	distance := DistanceMeters(*report.Latitude, *report.Longitude,
		*candidate.Latitude, *candidate.Longitude)
	similarity := TextSimilarity(report.Description, candidate.Description)
	isVerySimilar := distance < StandardRadiusMeters && similarity > MinTextSimilarity

	switch {
	case withinWindow && isVerySimilar:
		return DecisionReopen
	case isVerySimilar:
		return DecisionMerge
	default:
		return DecisionNew
	}
}

package match

import (
	"sort"

	"github.com/fixcity/api/internal/model"
)

// Distance and similarity thresholds for duplicate acceptance.
const (
	// StandardRadiusMeters bounds duplicates for fixed-location categories.
	StandardRadiusMeters = 100.0
	// LocationOnlyRadiusMeters bounds duplicates for the sanitation bucket,
	// where reports spread along street segments.
	LocationOnlyRadiusMeters = 300.0
	// MinTextSimilarity is the minimum token overlap for non-sanitation
	// categories.
	MinTextSimilarity = 0.4
)

// FindPotentialDuplicates returns the candidates that describe the same
// real-world issue as report, sorted by report_count descending so merges fold
// into the canonical report with the most corroboration. Pure decision
// function; the caller performs all mutation.
//
// A candidate is accepted when all of the following hold, in order:
//  1. it is canonical (never a merged-away child),
//  2. its normalized category equals the report's exactly, except inside the
//     sanitation bucket, where label variants like "garbage" and "waste
//     management" count as the same category,
//  3. it lies within the distance threshold (300 m for the sanitation bucket,
//     100 m otherwise),
//  4. for non-sanitation categories, its description overlaps the report's by
//     at least MinTextSimilarity. Sanitation candidates skip the text check.
func FindPotentialDuplicates(report *model.Report, candidates []*model.Report) []*model.Report {
	if report == nil || !report.HasCoordinates() {
		return nil
	}

	category := NormalizeCategory(report.Category)
	locationOnly := IsLocationOnlyCategory(category)

	radius := StandardRadiusMeters
	if locationOnly {
		radius = LocationOnlyRadiusMeters
	}

	var matches []*model.Report
	for _, candidate := range candidates {
		if candidate == nil || !candidate.IsCanonical() || !candidate.HasCoordinates() {
			continue
		}
		candidateCategory := NormalizeCategory(candidate.Category)
		if candidateCategory != category &&
			!(locationOnly && IsLocationOnlyCategory(candidateCategory)) {
			continue
		}

		distance := DistanceMeters(*report.Latitude, *report.Longitude,
			*candidate.Latitude, *candidate.Longitude)
		if distance > radius {
			continue
		}

		if !locationOnly {
			similarity := TextSimilarity(report.Description, candidate.Description)
			if similarity < MinTextSimilarity {
				continue
			}
		}

		matches = append(matches, candidate)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].EffectiveReportCount() > matches[j].EffectiveReportCount()
	})

	return matches
}

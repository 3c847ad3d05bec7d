package match

import (
	"testing"

	"github.com/fixcity/api/internal/model"
	"github.com/stretchr/testify/assert"
)

func newReport(id, category, description string, lat, lon float64) *model.Report {
	return &model.Report{
		ID:          id,
		Category:    category,
		Description: description,
		Latitude:    &lat,
		Longitude:   &lon,
	}
}

func TestFindPotentialDuplicates_DistanceBoundary(t *testing.T) {
	// One degree of latitude is ~111195 m, so 0.00089 deg is ~99 m and
	// 0.00091 deg is ~101 m.
	incoming := newReport("new", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0)
	near := newReport("near", "pothole", "big pothole near the bus stop blocking traffic", 12.00089, 77.0)
	far := newReport("far", "pothole", "big pothole near the bus stop blocking traffic", 12.00091, 77.0)

	matches := FindPotentialDuplicates(incoming, []*model.Report{near, far})
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "near", matches[0].ID)
	}
}

func TestFindPotentialDuplicates_LocationOnlyBoundary(t *testing.T) {
	// Sanitation-bucket categories relax the radius to 300 m and skip the
	// text check entirely: 0% description overlap must still match.
	incoming := newReport("new", "garbage", "overflowing bin outside the school", 12.0, 77.0)
	near := newReport("near", "garbage", "completely unrelated wording here", 12.00268, 77.0)  // ~298 m
	far := newReport("far", "garbage", "completely unrelated wording here", 12.00272, 77.0)    // ~302 m

	matches := FindPotentialDuplicates(incoming, []*model.Report{near, far})
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "near", matches[0].ID)
	}
}

func TestFindPotentialDuplicates_TextThreshold(t *testing.T) {
	incoming := newReport("new", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0)

	// Shares pothole/near/bus/stop/traffic with the incoming text: well over
	// the 0.4 overlap floor.
	similar := newReport("similar", "pothole", "pothole near bus stop blocking traffic", 12.0002, 77.0)
	// Same place, different problem description: below the floor.
	dissimilar := newReport("dissimilar", "pothole", "road surface cracked after rain", 12.0002, 77.0)

	matches := FindPotentialDuplicates(incoming, []*model.Report{similar, dissimilar})
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "similar", matches[0].ID)
	}
}

func TestFindPotentialDuplicates_RejectsNonCanonical(t *testing.T) {
	incoming := newReport("new", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0)

	child := newReport("child", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0)
	parent := "some-parent"
	child.ParentReportID = &parent

	assert.Empty(t, FindPotentialDuplicates(incoming, []*model.Report{child}))
}

func TestFindPotentialDuplicates_CategoryMustMatchExactly(t *testing.T) {
	incoming := newReport("new", "pothole", "large pothole near bus stop", 12.0, 77.0)
	other := newReport("other", "road damage", "large pothole near bus stop", 12.0, 77.0)
	sameButCased := newReport("cased", "  Pothole ", "large pothole near bus stop", 12.0, 77.0)

	matches := FindPotentialDuplicates(incoming, []*model.Report{other, sameButCased})
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "cased", matches[0].ID)
	}
}

func TestFindPotentialDuplicates_SanitationLabelVariantsMatch(t *testing.T) {
	// Inside the sanitation bucket, label variants count as the same
	// category; outside it they never do.
	incoming := newReport("new", "Garbage Overflow", "bins not collected", 12.0, 77.0)
	variant := newReport("variant", "waste management", "different words entirely", 12.001, 77.0)

	matches := FindPotentialDuplicates(incoming, []*model.Report{variant})
	if assert.Len(t, matches, 1) {
		assert.Equal(t, "variant", matches[0].ID)
	}
}

func TestFindPotentialDuplicates_SkipsMissingCoordinates(t *testing.T) {
	incoming := newReport("new", "pothole", "large pothole near bus stop", 12.0, 77.0)
	noCoords := &model.Report{ID: "nocoords", Category: "pothole", Description: "large pothole near bus stop"}

	assert.Empty(t, FindPotentialDuplicates(incoming, []*model.Report{noCoords}))

	assert.Empty(t, FindPotentialDuplicates(
		&model.Report{ID: "new", Category: "pothole", Description: "large pothole"},
		[]*model.Report{newReport("c", "pothole", "large pothole", 12.0, 77.0)},
	))
}

func TestFindPotentialDuplicates_SortedByReportCountDesc(t *testing.T) {
	incoming := newReport("new", "garbage", "trash pileup", 12.0, 77.0)

	small := newReport("small", "garbage", "", 12.0001, 77.0)
	small.ReportCount = 2
	big := newReport("big", "garbage", "", 12.0002, 77.0)
	big.ReportCount = 5
	legacy := newReport("legacy", "garbage", "", 12.0003, 77.0)
	legacy.ReportCount = 0 // pre-report_count row, reads as 1

	matches := FindPotentialDuplicates(incoming, []*model.Report{legacy, small, big})
	if assert.Len(t, matches, 3) {
		assert.Equal(t, "big", matches[0].ID)
		assert.Equal(t, "small", matches[1].ID)
		assert.Equal(t, "legacy", matches[2].ID)
	}
}

func TestFindPotentialDuplicates_PureFunction(t *testing.T) {
	incoming := newReport("new", "pothole", "pothole near bus stop", 12.0, 77.0)
	candidate := newReport("cand", "pothole", "pothole near bus stop", 12.0001, 77.0)
	candidate.ReportCount = 3

	FindPotentialDuplicates(incoming, []*model.Report{candidate})

	assert.Equal(t, 3, candidate.ReportCount)
	assert.Nil(t, candidate.ParentReportID)
	assert.Equal(t, "pothole near bus stop", incoming.Description)
}

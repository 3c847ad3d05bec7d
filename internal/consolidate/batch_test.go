package consolidate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fixcity/api/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func batchReport(id, category, description string, lat, lon float64, age time.Duration) *model.Report {
	return &model.Report{
		ID:          id,
		Category:    category,
		Description: description,
		Latitude:    &lat,
		Longitude:   &lon,
		Status:      model.StatusPending,
		Priority:    model.PriorityLow,
		ReportCount: 1,
		CreatedAt:   testEpoch.Add(-age),
	}
}

func newTestConsolidator(store ReportStore) *Consolidator {
	return New(store, WithClock(clockwork.NewFakeClockAt(testEpoch)))
}

func TestRunBatch_MergeCountAccumulation(t *testing.T) {
	// Six duplicates of one anchor: final count 7, priority urgent.
	anchor := batchReport("anchor", "pothole", "large pothole near bus stop causing traffic", 12.0, 77.0, 7*time.Hour)
	reports := []*model.Report{anchor}
	for i, id := range []string{"d1", "d2", "d3", "d4", "d5", "d6"} {
		reports = append(reports, batchReport(id, "pothole",
			"big pothole near the bus stop blocking traffic",
			12.0001, 77.0, time.Duration(6-i)*time.Hour))
	}

	store := newFakeStore(reports...)
	summary, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{})
	require.NoError(t, err)

	assert.False(t, summary.DryRun)
	assert.Equal(t, 7, summary.Scanned)
	assert.Equal(t, 6, summary.Planned)
	assert.Equal(t, 6, summary.Applied)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, actions, 6)
	last := actions[len(actions)-1]
	assert.Equal(t, "anchor", last.ParentID)
	assert.Equal(t, 7, last.NewCount)
	assert.Equal(t, model.PriorityUrgent, last.NewPriority)

	merged := store.get("anchor")
	require.NotNil(t, merged)
	assert.Equal(t, 7, merged.ReportCount)
	assert.Equal(t, model.PriorityUrgent, merged.Priority)

	// Duplicates are gone from the live store but preserved as evidence.
	assert.Equal(t, 1, store.count())
	assert.Len(t, store.evidenceFor("anchor"), 6)
	assert.Len(t, store.logs, 6)
}

func TestRunBatch_DryRunMakesNoMutations(t *testing.T) {
	anchor := batchReport("anchor", "pothole", "pothole near bus stop", 12.0, 77.0, 2*time.Hour)
	dup := batchReport("dup", "pothole", "pothole near bus stop", 12.0001, 77.0, time.Hour)

	store := newFakeStore(anchor, dup)
	summary, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 1, summary.Planned)
	assert.Equal(t, 0, summary.Applied)
	require.Len(t, actions, 1)
	assert.Equal(t, "anchor", actions[0].ParentID)
	assert.Equal(t, "dup", actions[0].DuplicateID)

	// Nothing moved.
	assert.Equal(t, 2, store.count())
	assert.Equal(t, 1, store.get("anchor").ReportCount)
	assert.Empty(t, store.evidence)
}

func TestRunBatch_OldestAnchorWins(t *testing.T) {
	oldest := batchReport("oldest", "pothole", "pothole near bus stop", 12.0, 77.0, 3*time.Hour)
	middle := batchReport("middle", "pothole", "pothole near bus stop", 12.0001, 77.0, 2*time.Hour)
	newest := batchReport("newest", "pothole", "pothole near bus stop", 12.0002, 77.0, time.Hour)

	store := newFakeStore(oldest, middle, newest)
	_, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)

	require.Len(t, actions, 2)
	for _, action := range actions {
		assert.Equal(t, "oldest", action.ParentID)
	}
}

func TestRunBatch_SanitationLabelsFoldIntoOneGroup(t *testing.T) {
	// Label variants compete for duplicate status inside one synthetic group,
	// and distance alone decides.
	a := batchReport("a", "Garbage Overflow", "bins not collected", 12.0, 77.0, 3*time.Hour)
	b := batchReport("b", "waste management", "completely different words", 12.001, 77.0, 2*time.Hour) // ~111 m
	c := batchReport("c", "roadside litter", "another phrasing entirely", 12.002, 77.0, time.Hour)     // ~222 m from a

	store := newFakeStore(a, b, c)
	summary, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Groups)
	require.Len(t, actions, 2)
	assert.Equal(t, "a", actions[0].ParentID)
	assert.Equal(t, "a", actions[1].ParentID)
}

func TestRunBatch_SkipsMalformedReports(t *testing.T) {
	lat := 12.0
	missingLon := &model.Report{ID: "nolon", Category: "pothole", Latitude: &lat,
		Status: model.StatusPending, ReportCount: 1, CreatedAt: testEpoch}
	blankCategory := batchReport("nocat", "   ", "something", 12.0, 77.0, time.Hour)
	ok := batchReport("ok", "pothole", "pothole near bus stop", 12.0, 77.0, 2*time.Hour)

	store := newFakeStore(missingLon, blankCategory, ok)
	summary, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, actions) // the surviving group has size 1
}

func TestRunBatch_GroupsSmallerThanTwoAreSkipped(t *testing.T) {
	store := newFakeStore(
		batchReport("p1", "pothole", "pothole", 12.0, 77.0, time.Hour),
		batchReport("s1", "streetlight", "lamp out", 13.0, 78.0, time.Hour),
	)

	summary, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Groups)
	assert.Empty(t, actions)
}

func TestRunBatch_FailFastOnInitialLoad(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("store unavailable")

	_, _, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{})
	assert.Error(t, err)
}

func TestRunBatch_PartialFailureContinues(t *testing.T) {
	anchor := batchReport("anchor", "pothole", "pothole near bus stop", 12.0, 77.0, 3*time.Hour)
	bad := batchReport("bad", "pothole", "pothole near bus stop", 12.0001, 77.0, 2*time.Hour)
	good := batchReport("good", "pothole", "pothole near bus stop", 12.0002, 77.0, time.Hour)

	store := newFakeStore(anchor, bad, good)
	store.deleteErrs["bad"] = errors.New("delete failed")

	summary, _, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Planned)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, summary.Failed)

	// The independent pair still merged.
	assert.Nil(t, store.get("good"))
	assert.NotNil(t, store.get("bad"))
}

func TestRunBatch_ConcurrentAcrossGroups(t *testing.T) {
	var reports []*model.Report
	categories := []string{"pothole", "streetlight", "water leakage", "road damage"}
	for gi, category := range categories {
		base := 12.0 + float64(gi) // groups far apart
		for i := 0; i < 3; i++ {
			reports = append(reports, batchReport(
				category+"-"+string(rune('a'+i)), category, "same issue near the market "+category,
				base+float64(i)*0.0001, 77.0, time.Duration(3-i)*time.Hour))
		}
	}

	store := newFakeStore(reports...)
	summary, _, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Groups)
	assert.Equal(t, 8, summary.Planned)
	assert.Equal(t, 8, summary.Applied)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunBatch_BoostAssignedVariant(t *testing.T) {
	tech := int64(42)

	anchor := batchReport("anchor", "pothole", "pothole near bus stop", 12.0, 77.0, 3*time.Hour)
	anchor.AssignedTechnicianID = &tech
	anchor.Status = model.StatusInProgress
	dup := batchReport("dup", "pothole", "pothole near bus stop", 12.0001, 77.0, time.Hour)

	// Without the variant: count 2 -> medium. With it, active work counts one
	// corroboration ahead: count 2 escalates as 3 -> still medium; verify at
	// the 3->4 boundary instead.
	dup2 := batchReport("dup2", "pothole", "pothole near bus stop", 12.0002, 77.0, 2*time.Hour)

	store := newFakeStore(anchor, dup, dup2)
	_, actions, err := newTestConsolidator(store).RunBatch(context.Background(),
		BatchOptions{DryRun: true, BoostAssigned: true})
	require.NoError(t, err)

	require.Len(t, actions, 2)
	// Second merge: newCount 3, boosted to 4 -> high.
	assert.Equal(t, 3, actions[1].NewCount)
	assert.Equal(t, model.PriorityHigh, actions[1].NewPriority)
}

func TestRunBatch_NeverDowngradesPriority(t *testing.T) {
	anchor := batchReport("anchor", "pothole", "pothole near bus stop", 12.0, 77.0, 2*time.Hour)
	anchor.Priority = model.PriorityUrgent // raised by an officer
	dup := batchReport("dup", "pothole", "pothole near bus stop", 12.0001, 77.0, time.Hour)

	store := newFakeStore(anchor, dup)
	_, actions, err := newTestConsolidator(store).RunBatch(context.Background(), BatchOptions{DryRun: true})
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, model.PriorityUrgent, actions[0].NewPriority)
}

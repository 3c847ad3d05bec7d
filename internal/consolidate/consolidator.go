package consolidate

import (
	"context"
	"log"

	"github.com/fixcity/api/internal/match"
	"github.com/fixcity/api/internal/model"
	"github.com/jonboulle/clockwork"
)

// sanitationGroupKey is the synthetic group all sanitation-bucket categories
// fold into during batch runs, so "Garbage" and "Waste Management" reports
// compete for duplicate status across label variants.
const sanitationGroupKey = "sanitation"

// Consolidator runs duplicate-report consolidation. The same component serves
// both entry modes: the offline full-corpus batch run and the online
// single-submission path, so the grouping and merge rules can never drift
// apart.
type Consolidator struct {
	store    ReportStore
	notifier Notifier
	clock    clockwork.Clock
}

type Option func(*Consolidator)

// WithNotifier attaches a downstream event notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Consolidator) { c.notifier = n }
}

// WithClock injects a clock; tests pass a fake.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Consolidator) { c.clock = clock }
}

func New(store ReportStore, opts ...Option) *Consolidator {
	c := &Consolidator{
		store: store,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// groupKey buckets a report for batch grouping: its normalized category, with
// the whole sanitation bucket folded into one synthetic group.
func groupKey(report *model.Report) string {
	category := match.NormalizeCategory(report.Category)
	if match.IsLocationOnlyCategory(category) {
		return sanitationGroupKey
	}
	return category
}

// matchable filters out malformed reports: missing coordinates or a blank
// category never crash a run, they are skipped from matching entirely.
func matchable(report *model.Report) bool {
	return report != nil &&
		report.HasCoordinates() &&
		match.NormalizeCategory(report.Category) != ""
}

// escalate computes the post-merge priority for an anchor. Priority is
// monotonic non-decreasing: consolidation never downgrades, even when an
// officer raised it by hand. With boostAssigned set (one batch variant), an
// anchor a technician is actively working counts one corroboration ahead.
func escalate(anchor *model.Report, newCount int, boostAssigned bool) string {
	effective := newCount
	if boostAssigned && anchor.AssignedTechnicianID != nil {
		effective++
	}
	return model.MaxPriority(anchor.Priority, match.PriorityFromCount(effective))
}

// evidenceFrom captures a duplicate's citizen-facing content before the live
// row is deleted.
func evidenceFrom(parentID string, duplicate *model.Report) *model.ReportEvidence {
	return &model.ReportEvidence{
		ReportID:          parentID,
		SubmittedByUserID: duplicate.SubmittedByUserID,
		ImageURL:          duplicate.FirstImageURL(),
		Description:       duplicate.Description,
		CreatedAt:         duplicate.CreatedAt,
	}
}

func (c *Consolidator) notifyMerged(ctx context.Context, parentID, duplicateID string) {
	if c.notifier != nil {
		c.notifier.ReportMerged(ctx, parentID, duplicateID)
	}
}

func (c *Consolidator) notifyReopened(ctx context.Context, reportID string) {
	if c.notifier != nil {
		c.notifier.ReportReopened(ctx, reportID)
	}
}

func (c *Consolidator) logMerge(ctx context.Context, entry *model.MergeLog) {
	if err := c.store.InsertMergeLog(ctx, entry); err != nil {
		log.Printf("[Consolidate] Failed to write merge log %s -> %s: %v",
			entry.SourceReportID, entry.TargetReportID, err)
	}
}

package consolidate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fixcity/api/internal/match"
	"github.com/fixcity/api/internal/model"
)

// maxMergeAttempts bounds the optimistic-concurrency retry loop. Each retry
// re-reads candidates and re-runs the match against fresh state.
const maxMergeAttempts = 3

// Outcome constants for ProcessSubmission.
const (
	OutcomeStandalone = "standalone"
	OutcomeMerged     = "merged"
	OutcomeReopened   = "reopened"
)

// Outcome describes what happened to a submitted report.
type Outcome struct {
	Action string `json:"action"`
	// Report is the surviving canonical record: the submission itself when
	// standalone, otherwise the anchor it was folded into.
	Report *model.Report `json:"report"`
}

// ProcessSubmission evaluates one incoming report at submission time and
// persists the result. A report that matches nothing is created standalone; a
// report matching a live canonical is folded in as evidence without ever
// entering the live table; a report matching a resolved canonical goes through
// the reopen policy. Merges onto an anchor use an optimistic report_count
// check so two near-simultaneous citizens cannot produce a lost update.
func (c *Consolidator) ProcessSubmission(ctx context.Context, report *model.Report) (*Outcome, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	if !matchable(report) {
		return c.createStandalone(ctx, report)
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		candidates, err := c.store.ListCanonicalReports(ctx, CandidateFilter{
			Category: match.NormalizeCategory(report.Category),
		})
		if err != nil {
			return nil, fmt.Errorf("load candidates: %w", err)
		}

		matches := match.FindPotentialDuplicates(report, candidates)
		if len(matches) == 0 {
			return c.createStandalone(ctx, report)
		}

		best := matches[0]
		if best.Status == model.StatusResolved {
			switch match.DecideResolved(best, report, c.clock.Now()) {
			case match.DecisionReopen:
				outcome, err := c.reopen(ctx, best, report)
				if err == ErrStaleCount {
					continue
				}
				return outcome, err
			case match.DecisionMerge:
				// fall through to the merge below
			default:
				return c.createStandalone(ctx, report)
			}
		}

		outcome, err := c.merge(ctx, best, report)
		if err == ErrStaleCount {
			continue
		}
		return outcome, err
	}

	// Retries exhausted under contention. Creating the report standalone is
	// the safe fallback: the next batch sweep folds any leftover duplicate.
	log.Printf("[Consolidate] Optimistic merge retries exhausted for category %q, creating standalone", report.Category)
	return c.createStandalone(ctx, report)
}

func (c *Consolidator) createStandalone(ctx context.Context, report *model.Report) (*Outcome, error) {
	report.Status = model.StatusPending
	report.Priority = model.PriorityLow
	report.ReportCount = 1
	report.ParentReportID = nil

	if err := c.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return &Outcome{Action: OutcomeStandalone, Report: report}, nil
}

// merge folds the submission into a live anchor. The submission never becomes
// a live row; its content survives as evidence.
func (c *Consolidator) merge(ctx context.Context, anchor, report *model.Report) (*Outcome, error) {
	now := c.clock.Now()
	newCount := anchor.EffectiveReportCount() + 1
	newPriority := escalate(anchor, newCount, false)

	err := c.store.UpdateReportIfCountMatches(ctx, anchor.ID, anchor.ReportCount, map[string]interface{}{
		"report_count": newCount,
		"priority":     newPriority,
		"updated_at":   now,
	})
	if err != nil {
		if err == ErrStaleCount {
			return nil, err
		}
		return nil, fmt.Errorf("update anchor %s: %w", anchor.ID, err)
	}

	c.recordFold(ctx, anchor, report, model.MergeActionMerge, now)

	anchor.ReportCount = newCount
	anchor.Priority = newPriority
	anchor.UpdatedAt = now
	return &Outcome{Action: OutcomeMerged, Report: anchor}, nil
}

// reopen resumes a resolved case: status resets to pending, or in_progress
// when a technician is still attached, and the submission folds in as
// evidence.
func (c *Consolidator) reopen(ctx context.Context, anchor, report *model.Report) (*Outcome, error) {
	now := c.clock.Now()
	newCount := anchor.EffectiveReportCount() + 1
	newPriority := escalate(anchor, newCount, false)

	status := model.StatusPending
	if anchor.AssignedTechnicianID != nil {
		status = model.StatusInProgress
	}

	err := c.store.UpdateReportIfCountMatches(ctx, anchor.ID, anchor.ReportCount, map[string]interface{}{
		"status":       status,
		"report_count": newCount,
		"priority":     newPriority,
		"updated_at":   now,
	})
	if err != nil {
		if err == ErrStaleCount {
			return nil, err
		}
		return nil, fmt.Errorf("reopen anchor %s: %w", anchor.ID, err)
	}

	c.recordFold(ctx, anchor, report, model.MergeActionReopen, now)
	c.notifyReopened(ctx, anchor.ID)

	anchor.Status = status
	anchor.ReportCount = newCount
	anchor.Priority = newPriority
	anchor.UpdatedAt = now
	return &Outcome{Action: OutcomeReopened, Report: anchor}, nil
}

// recordFold writes the evidence row and audit log for a folded submission.
// Both are fail-soft: the anchor update already committed.
func (c *Consolidator) recordFold(ctx context.Context, anchor, report *model.Report, action string, now time.Time) {
	evidence := evidenceFrom(anchor.ID, report)
	if evidence.CreatedAt.IsZero() {
		evidence.CreatedAt = now
	}
	if err := c.store.InsertEvidence(ctx, evidence); err != nil {
		log.Printf("[Consolidate] Evidence insert failed for %s -> %s: %v", report.ID, anchor.ID, err)
	}

	c.logMerge(ctx, &model.MergeLog{
		SourceReportID: report.ID,
		TargetReportID: anchor.ID,
		DistanceMeters: match.DistanceMeters(*report.Latitude, *report.Longitude,
			*anchor.Latitude, *anchor.Longitude),
		TextSimilarity: match.TextSimilarity(report.Description, anchor.Description),
		Action:         action,
		Mode:           model.MergeModeOnline,
		CreatedAt:      now,
	})
	if action == model.MergeActionMerge {
		c.notifyMerged(ctx, anchor.ID, report.ID)
	}
}

package consolidate

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/fixcity/api/internal/match"
	"github.com/fixcity/api/internal/model"
)

// BatchOptions controls a full-corpus reconciliation run.
type BatchOptions struct {
	// DryRun plans merge actions without mutating the store. Callers default
	// this to true; mutation is opt-in.
	DryRun bool
	// Workers bounds concurrency ACROSS category groups. Work within one
	// group is always serialized: two anchors racing for the same duplicate
	// would otherwise both claim it.
	Workers int
	// BoostAssigned enables the escalation variant that counts an anchor
	// with an assigned technician one corroboration ahead.
	BoostAssigned bool
}

// MergeAction is one planned fold of a duplicate into its anchor.
type MergeAction struct {
	ParentID       string  `json:"parentId"`
	DuplicateID    string  `json:"duplicateId"`
	NewCount       int     `json:"newCount"`
	NewPriority    string  `json:"newPriority"`
	DistanceMeters float64 `json:"distanceMeters"`
	TextSimilarity float64 `json:"textSimilarity"`

	parent    *model.Report
	duplicate *model.Report
}

// BatchSummary is the operator-facing result of a batch run.
type BatchSummary struct {
	Scanned   int           `json:"scanned"`
	Skipped   int           `json:"skipped"`
	Groups    int           `json:"groups"`
	Planned   int           `json:"planned"`
	Applied   int           `json:"applied"`
	Failed    int           `json:"failed"`
	DryRun    bool          `json:"dryRun"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS int64         `json:"elapsedMs"`
}

// RunBatch reconciles the entire canonical corpus. It fails fast if the
// initial load fails (nothing has been mutated yet) and fails soft on
// individual merge actions: a store error on one pair is logged, counted in
// Failed, and never aborts the rest of the run.
func (c *Consolidator) RunBatch(ctx context.Context, opts BatchOptions) (*BatchSummary, []MergeAction, error) {
	start := c.clock.Now()

	reports, err := c.store.ListCanonicalReports(ctx, CandidateFilter{})
	if err != nil {
		return nil, nil, err
	}

	summary := &BatchSummary{Scanned: len(reports), DryRun: opts.DryRun}

	groups := make(map[string][]*model.Report)
	for _, report := range reports {
		if !matchable(report) {
			summary.Skipped++
			continue
		}
		key := groupKey(report)
		groups[key] = append(groups[key], report)
	}

	keys := make([]string, 0, len(groups))
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	summary.Groups = len(keys)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(keys) && len(keys) > 0 {
		workers = len(keys)
	}

	var (
		mu      sync.Mutex
		actions []MergeAction
		wg      sync.WaitGroup
	)
	keyChan := make(chan string, len(keys))
	for _, key := range keys {
		keyChan <- key
	}
	close(keyChan)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range keyChan {
				planned := planGroup(groups[key], opts.BoostAssigned)

				applied, failed := 0, 0
				if !opts.DryRun {
					// Single writer per group: apply in plan order before
					// picking up the next group.
					applied, failed = c.applyActions(ctx, planned)
				}

				mu.Lock()
				actions = append(actions, planned...)
				summary.Planned += len(planned)
				summary.Applied += applied
				summary.Failed += failed
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].ParentID != actions[j].ParentID {
			return actions[i].ParentID < actions[j].ParentID
		}
		return actions[i].NewCount < actions[j].NewCount
	})

	summary.Elapsed = c.clock.Now().Sub(start)
	summary.ElapsedMS = summary.Elapsed.Milliseconds()
	return summary, actions, nil
}

// planGroup walks one category group oldest-to-newest. Each unprocessed report
// anchors a matcher pass over the not-yet-processed later reports; accepted
// duplicates accumulate onto the anchor's running count. Deterministic: ties
// between equally-valid candidates are already broken by the matcher's
// report_count-descending sort, never randomly.
func planGroup(group []*model.Report, boostAssigned bool) []MergeAction {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].CreatedAt.Before(group[j].CreatedAt)
	})

	processed := make(map[string]bool, len(group))
	var actions []MergeAction

	for i, anchor := range group {
		if processed[anchor.ID] {
			continue
		}

		var later []*model.Report
		for _, candidate := range group[i+1:] {
			if !processed[candidate.ID] {
				later = append(later, candidate)
			}
		}
		if len(later) == 0 {
			continue
		}

		count := anchor.EffectiveReportCount()
		for _, duplicate := range match.FindPotentialDuplicates(anchor, later) {
			processed[duplicate.ID] = true
			count++

			actions = append(actions, MergeAction{
				ParentID:    anchor.ID,
				DuplicateID: duplicate.ID,
				NewCount:    count,
				NewPriority: escalate(anchor, count, boostAssigned),
				DistanceMeters: match.DistanceMeters(
					*anchor.Latitude, *anchor.Longitude,
					*duplicate.Latitude, *duplicate.Longitude),
				TextSimilarity: match.TextSimilarity(anchor.Description, duplicate.Description),
				parent:         anchor,
				duplicate:      duplicate,
			})
		}
	}

	return actions
}

// applyActions persists planned merges. A failure leaves that pair's state
// possibly inconsistent; it is counted for operator follow-up, not silently
// retried.
func (c *Consolidator) applyActions(ctx context.Context, actions []MergeAction) (applied, failed int) {
	now := c.clock.Now()

	for _, action := range actions {
		if err := c.store.InsertEvidence(ctx, evidenceFrom(action.ParentID, action.duplicate)); err != nil {
			log.Printf("[Consolidate] Evidence insert failed for %s -> %s: %v",
				action.DuplicateID, action.ParentID, err)
			failed++
			continue
		}

		if err := c.store.UpdateReport(ctx, action.ParentID, map[string]interface{}{
			"report_count": action.NewCount,
			"priority":     action.NewPriority,
			"updated_at":   now,
		}); err != nil {
			log.Printf("[Consolidate] Parent update failed for %s: %v", action.ParentID, err)
			failed++
			continue
		}

		if err := c.store.DeleteReport(ctx, action.DuplicateID); err != nil {
			log.Printf("[Consolidate] Duplicate delete failed for %s: %v", action.DuplicateID, err)
			failed++
			continue
		}

		c.logMerge(ctx, &model.MergeLog{
			SourceReportID: action.DuplicateID,
			TargetReportID: action.ParentID,
			DistanceMeters: action.DistanceMeters,
			TextSimilarity: action.TextSimilarity,
			Action:         model.MergeActionMerge,
			Mode:           model.MergeModeBatch,
			CreatedAt:      now,
		})
		c.notifyMerged(ctx, action.ParentID, action.DuplicateID)
		applied++
	}

	return applied, failed
}

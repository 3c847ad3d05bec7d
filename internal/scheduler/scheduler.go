package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fixcity/api/internal/consolidate"
	"github.com/fixcity/api/internal/middleware"
)

// SweepScheduler runs the batch consolidation sweep on an interval. The
// online submission path catches most duplicates; the sweep mops up what slipped
// through (contention fallbacks, reports submitted while the matcher was
// down, pre-consolidation backfill).
type SweepScheduler struct {
	consolidator *consolidate.Consolidator
	interval     time.Duration
	dryRun       bool

	mu          sync.Mutex
	running     bool
	lastRun     time.Time
	lastSummary *consolidate.BatchSummary
	stopChan    chan struct{}
}

type SweepConfig struct {
	Interval time.Duration
	// DryRun plans without mutating; useful while tuning thresholds in a new
	// deployment.
	DryRun bool
}

func NewSweepScheduler(consolidator *consolidate.Consolidator, cfg SweepConfig) *SweepScheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 6 * time.Hour
	}

	return &SweepScheduler{
		consolidator: consolidator,
		interval:     cfg.Interval,
		dryRun:       cfg.DryRun,
		stopChan:     make(chan struct{}),
	}
}

func (s *SweepScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[Sweep] Starting with interval %v (dryRun=%v)", s.interval, s.dryRun)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Sweep] Context cancelled, stopping")
			return
		case <-s.stopChan:
			log.Println("[Sweep] Stop signal received")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
		log.Println("[Sweep] Stopped")
	}
}

func (s *SweepScheduler) runOnce(ctx context.Context) {
	summary, _, err := s.consolidator.RunBatch(ctx, consolidate.BatchOptions{
		DryRun:  s.dryRun,
		Workers: 4,
	})
	if err != nil {
		log.Printf("[Sweep] Batch run failed: %v", err)
		return
	}

	log.Printf("[Sweep] Scanned %d reports, planned %d merges, applied %d, failed %d in %v",
		summary.Scanned, summary.Planned, summary.Applied, summary.Failed, summary.Elapsed)
	middleware.RecordSweep(summary.Applied, summary.Failed, summary.Elapsed)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastSummary = summary
	s.mu.Unlock()
}

// GetStatus returns current scheduler status for the status endpoint.
func (s *SweepScheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
		"dryRun":   s.dryRun,
	}
	if !s.lastRun.IsZero() {
		status["lastRun"] = s.lastRun
		status["lastSummary"] = s.lastSummary
	}
	return status
}

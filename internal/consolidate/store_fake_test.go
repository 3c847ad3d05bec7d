package consolidate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fixcity/api/internal/match"
	"github.com/fixcity/api/internal/model"
)

// fakeStore is an in-memory ReportStore for tests.
type fakeStore struct {
	mu       sync.Mutex
	reports  map[string]*model.Report
	evidence []*model.ReportEvidence
	logs     []*model.MergeLog

	listErr    error
	deleteErrs map[string]error
	updateErrs map[string]error

	// listHook mutates the copies a ListCanonicalReports call returns,
	// letting tests simulate a read that raced a concurrent write.
	listHook func(reports []*model.Report)
}

func newFakeStore(reports ...*model.Report) *fakeStore {
	s := &fakeStore{
		reports:    make(map[string]*model.Report),
		deleteErrs: make(map[string]error),
		updateErrs: make(map[string]error),
	}
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	return s
}

func (s *fakeStore) ListCanonicalReports(_ context.Context, filter CandidateFilter) ([]*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}

	var result []*model.Report
	for _, r := range s.reports {
		if r.ParentReportID != nil {
			continue
		}
		if filter.Category != "" {
			category := match.NormalizeCategory(r.Category)
			if match.IsLocationOnlyCategory(filter.Category) {
				if !match.IsLocationOnlyCategory(category) {
					continue
				}
			} else if category != filter.Category {
				continue
			}
		}
		clone := *r
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if s.listHook != nil {
		s.listHook(result)
	}
	return result, nil
}

func (s *fakeStore) GetReport(_ context.Context, id string) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, errors.New("not found")
	}
	clone := *r
	return &clone, nil
}

func (s *fakeStore) CreateReport(_ context.Context, report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *report
	s.reports[report.ID] = &clone
	return nil
}

func (s *fakeStore) UpdateReport(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateErrs[id]; err != nil {
		return err
	}
	r, ok := s.reports[id]
	if !ok {
		return errors.New("not found")
	}
	applyFields(r, fields)
	return nil
}

func (s *fakeStore) UpdateReportIfCountMatches(_ context.Context, id string, expectedCount int, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateErrs[id]; err != nil {
		return err
	}
	r, ok := s.reports[id]
	if !ok {
		return errors.New("not found")
	}
	if r.ReportCount != expectedCount {
		return ErrStaleCount
	}
	applyFields(r, fields)
	return nil
}

func (s *fakeStore) DeleteReport(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteErrs[id]; err != nil {
		return err
	}
	delete(s.reports, id)
	return nil
}

func (s *fakeStore) InsertEvidence(_ context.Context, evidence *model.ReportEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evidence = append(s.evidence, evidence)
	return nil
}

func (s *fakeStore) InsertMergeLog(_ context.Context, entry *model.MergeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, entry)
	return nil
}

func (s *fakeStore) get(id string) *model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports[id]
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func (s *fakeStore) evidenceFor(id string) []*model.ReportEvidence {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*model.ReportEvidence
	for _, e := range s.evidence {
		if e.ReportID == id {
			result = append(result, e)
		}
	}
	return result
}

func applyFields(r *model.Report, fields map[string]interface{}) {
	for key, value := range fields {
		switch key {
		case "report_count":
			r.ReportCount = value.(int)
		case "priority":
			r.Priority = value.(string)
		case "status":
			r.Status = value.(string)
		case "updated_at":
			r.UpdatedAt = value.(time.Time)
		}
	}
}

package store

import (
	"context"
	"strings"

	"github.com/fixcity/api/internal/consolidate"
	"github.com/fixcity/api/internal/match"
	"github.com/fixcity/api/internal/model"
	"gorm.io/gorm"
)

// ReportStore is the gorm-backed record store behind consolidation.
type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) ListCanonicalReports(ctx context.Context, filter consolidate.CandidateFilter) ([]*model.Report, error) {
	q := s.db.WithContext(ctx).Model(&model.Report{}).Where("parent_report_id IS NULL")

	if filter.Category != "" {
		if match.IsLocationOnlyCategory(filter.Category) {
			// The whole sanitation bucket competes together, whatever the label.
			keywords := match.LocationOnlyKeywords()
			clauses := make([]string, len(keywords))
			args := make([]interface{}, len(keywords))
			for i, keyword := range keywords {
				clauses[i] = "lower(category) LIKE ?"
				args[i] = "%" + keyword + "%"
			}
			q = q.Where(strings.Join(clauses, " OR "), args...)
		} else {
			q = q.Where("lower(trim(category)) = ?", filter.Category)
		}
	}

	var reports []*model.Report
	if err := q.Order("created_at ASC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportStore) CreateReport(ctx context.Context, report *model.Report) error {
	return s.db.WithContext(ctx).Create(report).Error
}

func (s *ReportStore) UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&model.Report{}).Where("id = ?", id).Updates(fields).Error
}

func (s *ReportStore) UpdateReportIfCountMatches(ctx context.Context, id string, expectedCount int, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&model.Report{}).
		Where("id = ? AND report_count = ?", id, expectedCount).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	// Zero rows means the count moved under us (or the row vanished); either
	// way the caller must re-read before acting.
	if result.RowsAffected == 0 {
		return consolidate.ErrStaleCount
	}
	return nil
}

func (s *ReportStore) DeleteReport(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.Report{}, "id = ?", id).Error
}

func (s *ReportStore) InsertEvidence(ctx context.Context, evidence *model.ReportEvidence) error {
	return s.db.WithContext(ctx).Create(evidence).Error
}

func (s *ReportStore) InsertMergeLog(ctx context.Context, entry *model.MergeLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

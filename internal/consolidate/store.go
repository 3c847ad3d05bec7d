package consolidate

import (
	"context"
	"errors"

	"github.com/fixcity/api/internal/model"
)

// ErrStaleCount is returned by UpdateReportIfCountMatches when the stored
// report_count no longer matches the caller's expectation, meaning another
// submission merged onto the same anchor in between.
var ErrStaleCount = errors.New("report count changed since read")

// CandidateFilter narrows ListCanonicalReports. A non-empty Category is a
// normalized label; stores must fold the whole sanitation bucket together when
// the label falls in it, so label variants like "garbage" and "waste
// management" compete for duplicate status.
type CandidateFilter struct {
	Category string
}

// ReportStore is the record-store surface consolidation needs. The gorm
// implementation lives in internal/store; tests use an in-memory fake.
type ReportStore interface {
	// ListCanonicalReports returns reports with no parent, oldest first.
	ListCanonicalReports(ctx context.Context, filter CandidateFilter) ([]*model.Report, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	CreateReport(ctx context.Context, report *model.Report) error
	UpdateReport(ctx context.Context, id string, fields map[string]interface{}) error
	// UpdateReportIfCountMatches applies fields only while the stored
	// report_count still equals expectedCount; otherwise ErrStaleCount.
	UpdateReportIfCountMatches(ctx context.Context, id string, expectedCount int, fields map[string]interface{}) error
	DeleteReport(ctx context.Context, id string) error
	InsertEvidence(ctx context.Context, evidence *model.ReportEvidence) error
	InsertMergeLog(ctx context.Context, entry *model.MergeLog) error
}

// Notifier receives consolidation events for downstream dispatch (email, push).
// Implementations must be fail-soft; consolidation never depends on delivery.
type Notifier interface {
	ReportMerged(ctx context.Context, parentID, duplicateID string)
	ReportReopened(ctx context.Context, reportID string)
}

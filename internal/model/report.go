package model

import (
	"time"

	"github.com/lib/pq"
)

type Report struct {
	ID                   string         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SubmittedByUserID    int64          `gorm:"not null;index" json:"submittedByUserId"`
	Category             string         `gorm:"not null;size:100" json:"category"`
	Description          string         `gorm:"type:text" json:"description"`
	Latitude             *float64       `json:"latitude,omitempty"`
	Longitude            *float64       `json:"longitude,omitempty"`
	ImageURLs            pq.StringArray `gorm:"type:text[]" json:"imageUrls"`
	Priority             string         `gorm:"default:'low';size:20" json:"priority"`
	Status               string         `gorm:"default:'pending';size:20;index" json:"status"`
	ParentReportID       *string        `gorm:"type:uuid;index" json:"parentReportId,omitempty"`
	ReportCount          int            `gorm:"default:1" json:"reportCount"`
	AssignedTechnicianID *int64         `gorm:"index" json:"assignedTechnicianId,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

func (Report) TableName() string {
	return "reports"
}

// Status constants
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Priority constants, ordered low to urgent
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var priorityRank = map[string]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// PriorityRank returns the position of p in the low..urgent ordering.
// Unknown values rank below low.
func PriorityRank(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return -1
}

// MaxPriority returns the higher of the two priorities. Consolidation never
// downgrades a report, so recomputed priorities are folded in through this.
func MaxPriority(a, b string) string {
	if PriorityRank(b) > PriorityRank(a) {
		return b
	}
	return a
}

// IsCanonical reports whether r is a report of record (not merged into a
// parent). Only canonical reports participate as match candidates or targets.
func (r *Report) IsCanonical() bool {
	return r.ParentReportID == nil
}

// HasCoordinates reports whether both dimensions are present. Reports lacking
// either are skipped by matching entirely.
func (r *Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// EffectiveReportCount is the single place the legacy defaulting rule lives:
// rows written before report_count existed carry 0, which reads as 1.
func (r *Report) EffectiveReportCount() int {
	if r.ReportCount < 1 {
		return 1
	}
	return r.ReportCount
}

// FirstImageURL returns the lead photo, or "" when none were attached.
func (r *Report) FirstImageURL() string {
	if len(r.ImageURLs) == 0 {
		return ""
	}
	return r.ImageURLs[0]
}

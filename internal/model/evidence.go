package model

import (
	"time"

	"gorm.io/datatypes"
)

// ReportEvidence preserves the citizen-facing content of a merged duplicate.
// Rows are append-only: a duplicate report is deleted from the live reports
// table, but its description, photo, author and timestamp live on here, keyed
// by the canonical report they were folded into.
type ReportEvidence struct {
	ID                string         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReportID          string         `gorm:"type:uuid;not null;index" json:"reportId"`
	SubmittedByUserID int64          `gorm:"not null" json:"submittedByUserId"`
	ImageURL          string         `json:"imageUrl"`
	Description       string         `gorm:"type:text" json:"description"`
	Detail            datatypes.JSON `json:"detail,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

func (ReportEvidence) TableName() string {
	return "report_evidence"
}

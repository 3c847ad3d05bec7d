package model

import "time"

// MergeLog is the audit trail for consolidation decisions, whether made by the
// online submission path or the offline batch run.
type MergeLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceReportID string    `gorm:"type:uuid;not null;index" json:"sourceReportId"`
	TargetReportID string    `gorm:"type:uuid;not null;index" json:"targetReportId"`
	DistanceMeters float64   `json:"distanceMeters"`
	TextSimilarity float64   `json:"textSimilarity"`
	Action         string    `gorm:"not null;size:20" json:"action"`
	Mode           string    `gorm:"not null;size:20" json:"mode"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (MergeLog) TableName() string {
	return "merge_logs"
}

// Action constants
const (
	MergeActionMerge  = "merge"
	MergeActionReopen = "reopen"
)

// Mode constants
const (
	MergeModeOnline = "online"
	MergeModeBatch  = "batch"
)

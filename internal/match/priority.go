package match

import "github.com/fixcity/api/internal/model"

// PriorityFromCount maps a total corroboration count (the canonical report
// plus all merged duplicates) to a priority level. It is a function of the
// total, not the increment: recomputing after every merge is idempotent and
// order-independent.
func PriorityFromCount(totalReportCount int) string {
	switch {
	case totalReportCount >= 7:
		return model.PriorityUrgent
	case totalReportCount >= 4:
		return model.PriorityHigh
	case totalReportCount >= 2:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// UpgradePriority is the legacy name for PriorityFromCount, kept for callers
// written against the old consolidation script. It must not diverge.
func UpgradePriority(totalReportCount int) string {
	return PriorityFromCount(totalReportCount)
}

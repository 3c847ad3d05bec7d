package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fixcity/api/internal/cache"
	"github.com/fixcity/api/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfficerHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

func NewOfficerHandler(db *gorm.DB, redisCache *cache.RedisCache) *OfficerHandler {
	return &OfficerHandler{db: db, cache: redisCache}
}

// ListReports returns canonical reports with pagination and filters. Ordered
// by priority first so the queue surfaces what needs attention.
func (h *OfficerHandler) ListReports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := c.Query("status")
	category := c.Query("category")
	priority := c.Query("priority")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	query := h.db.Model(&model.Report{}).Where("parent_report_id IS NULL")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("lower(category) = lower(?)", category)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var totalCount int64
	query.Count(&totalCount)

	var reports []model.Report
	query.Order(`CASE priority
			WHEN 'urgent' THEN 0
			WHEN 'high' THEN 1
			WHEN 'medium' THEN 2
			ELSE 3
		END, report_count DESC, created_at ASC`).
		Offset(offset).
		Limit(limit).
		Find(&reports)

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"reports":    reports,
		"total":      totalCount,
		"page":       page,
		"totalPages": totalPages,
	})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var validStatuses = map[string]bool{
	model.StatusPending:    true,
	model.StatusInProgress: true,
	model.StatusResolved:   true,
	model.StatusRejected:   true,
}

// UpdateStatus transitions a report's workflow state.
func (h *OfficerHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, in_progress, resolved, rejected"})
		return
	}

	var report model.Report
	if err := h.db.First(&report, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	updates := map[string]interface{}{
		"status":     req.Status,
		"updated_at": time.Now(),
	}
	if err := h.db.Model(&report).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	report.Status = req.Status

	h.invalidate(c, id)
	c.JSON(http.StatusOK, report)
}

type AssignRequest struct {
	TechnicianID int64 `json:"technicianId" binding:"required"`
}

// AssignTechnician attaches a technician and moves the report to in_progress.
func (h *OfficerHandler) AssignTechnician(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "technicianId is required"})
		return
	}

	var technician model.User
	if err := h.db.First(&technician, req.TechnicianID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "technician not found"})
		return
	}
	if technician.Role != model.RoleTechnician {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not a technician"})
		return
	}

	var report model.Report
	if err := h.db.First(&report, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	updates := map[string]interface{}{
		"assigned_technician_id": req.TechnicianID,
		"status":                 model.StatusInProgress,
		"updated_at":             time.Now(),
	}
	if err := h.db.Model(&report).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign technician"})
		return
	}
	report.AssignedTechnicianID = &req.TechnicianID
	report.Status = model.StatusInProgress

	h.invalidate(c, id)
	c.JSON(http.StatusOK, report)
}

type DashboardStats struct {
	TotalReports      int64            `json:"totalReports"`
	PendingReports    int64            `json:"pendingReports"`
	InProgressReports int64            `json:"inProgressReports"`
	ResolvedReports   int64            `json:"resolvedReports"`
	UrgentReports     int64            `json:"urgentReports"`
	ReportsByCategory map[string]int64 `json:"reportsByCategory"`
	RecentMerges      []model.MergeLog `json:"recentMerges"`
}

// GetStats returns dashboard statistics, cached in Redis for a minute.
func (h *OfficerHandler) GetStats(c *gin.Context) {
	cacheKey := cache.DashboardKey()
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				c.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	var stats DashboardStats

	canonical := func() *gorm.DB {
		return h.db.Model(&model.Report{}).Where("parent_report_id IS NULL")
	}

	canonical().Count(&stats.TotalReports)
	canonical().Where("status = ?", model.StatusPending).Count(&stats.PendingReports)
	canonical().Where("status = ?", model.StatusInProgress).Count(&stats.InProgressReports)
	canonical().Where("status = ?", model.StatusResolved).Count(&stats.ResolvedReports)
	canonical().Where("priority = ?", model.PriorityUrgent).Count(&stats.UrgentReports)

	stats.ReportsByCategory = make(map[string]int64)
	type categoryCount struct {
		Category string
		Count    int64
	}
	var categoryCounts []categoryCount
	canonical().
		Select("lower(category) as category, count(*) as count").
		Group("lower(category)").
		Order("count DESC").
		Scan(&categoryCounts)
	for _, cc := range categoryCounts {
		stats.ReportsByCategory[cc.Category] = cc.Count
	}

	h.db.Model(&model.MergeLog{}).
		Order("created_at DESC").
		Limit(10).
		Find(&stats.RecentMerges)

	if h.cache != nil {
		if statsJSON, err := json.Marshal(stats); err == nil {
			h.cache.Set(c.Request.Context(), cacheKey, statsJSON, cache.DashboardTTL)
		}
	}

	c.JSON(http.StatusOK, stats)
}

// ListMergeLogs returns the consolidation audit trail for a report.
func (h *OfficerHandler) ListMergeLogs(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var logs []model.MergeLog
	h.db.Where("target_report_id = ?", id).Order("created_at ASC").Find(&logs)

	c.JSON(http.StatusOK, gin.H{"mergeLogs": logs, "total": len(logs)})
}

func (h *OfficerHandler) invalidate(c *gin.Context, reportID string) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	h.cache.Delete(ctx, cache.DashboardKey())
	h.cache.Delete(ctx, cache.ReportKey(reportID))
}

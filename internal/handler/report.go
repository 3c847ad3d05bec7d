package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/fixcity/api/internal/cache"
	"github.com/fixcity/api/internal/consolidate"
	"github.com/fixcity/api/internal/filter"
	"github.com/fixcity/api/internal/middleware"
	"github.com/fixcity/api/internal/model"
	"github.com/fixcity/api/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportHandler struct {
	db                *gorm.DB
	cache             *cache.RedisCache
	consolidator      *consolidate.Consolidator
	categoryValidator *validator.CategoryValidator
}

func NewReportHandler(db *gorm.DB, redisCache *cache.RedisCache, consolidator *consolidate.Consolidator, categoryValidator *validator.CategoryValidator) *ReportHandler {
	return &ReportHandler{
		db:                db,
		cache:             redisCache,
		consolidator:      consolidator,
		categoryValidator: categoryValidator,
	}
}

type SubmitRequest struct {
	Category    string   `json:"category" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	ImageURLs   []string `json:"imageUrls"`
}

// Submit accepts a citizen report and runs it through consolidation. The
// response tells the citizen what happened: a fresh report, a merge into an
// existing one, or a reopened case.
func (h *ReportHandler) Submit(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and description are required"})
		return
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be provided together"})
		return
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
			return
		}
	}

	// Unknown labels are accepted; the curated list exists for the submission
	// form, not as a gate. Log them so the list can grow.
	if h.categoryValidator != nil && !h.categoryValidator.IsKnown(req.Category) {
		log.Printf("Unlisted category submitted: %q", req.Category)
	}

	report := &model.Report{
		ID:                uuid.New().String(),
		SubmittedByUserID: userID.(int64),
		Category:          req.Category,
		Description:       filter.CleanDescription(req.Description),
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		ImageURLs:         req.ImageURLs,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	outcome, err := h.consolidator.ProcessSubmission(c.Request.Context(), report)
	if err != nil {
		log.Printf("Submission failed for user %d: %v", userID.(int64), err)
		middleware.RecordSubmission("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process report"})
		return
	}
	middleware.RecordSubmission(outcome.Action)

	// The dashboard and the touched report are now stale
	if h.cache != nil {
		ctx := c.Request.Context()
		h.cache.Delete(ctx, cache.DashboardKey())
		h.cache.Delete(ctx, cache.ReportKey(outcome.Report.ID))
	}

	status := http.StatusCreated
	if outcome.Action != consolidate.OutcomeStandalone {
		status = http.StatusOK
	}
	c.JSON(status, outcome)
}

// ListMine returns the caller's reports, including canonical reports their
// submissions were merged into.
func (h *ReportHandler) ListMine(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	// Direct submissions plus canonical reports holding evidence the user
	// contributed.
	var reports []model.Report
	result := h.db.
		Where("submitted_by_user_id = ? OR id IN (SELECT report_id FROM report_evidence WHERE submitted_by_user_id = ?)",
			userID.(int64), userID.(int64)).
		Order("created_at DESC").
		Find(&reports)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "total": len(reports)})
}

type reportDetail struct {
	model.Report
	Evidence []model.ReportEvidence `json:"evidence"`
}

// Get returns a single report with its evidence trail.
func (h *ReportHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	cacheKey := cache.ReportKey(id)
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey); err == nil {
			var detail reportDetail
			if err := json.Unmarshal(cached, &detail); err == nil {
				c.JSON(http.StatusOK, detail)
				return
			}
		}
	}

	var report model.Report
	if err := h.db.First(&report, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	detail := reportDetail{Report: report}
	h.db.Where("report_id = ?", id).Order("created_at ASC").Find(&detail.Evidence)

	if h.cache != nil {
		if detailJSON, err := json.Marshal(detail); err == nil {
			h.cache.Set(c.Request.Context(), cacheKey, detailJSON, cache.DashboardTTL)
		}
	}

	c.JSON(http.StatusOK, detail)
}

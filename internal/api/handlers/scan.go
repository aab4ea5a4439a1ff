package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sahana-h/job-parser/internal/api/middleware"
	"github.com/sahana-h/job-parser/internal/services"
)

// ScanHandler handles manual pipeline triggers
type ScanHandler struct {
	pipeline  *services.PipelineService
	scheduler *services.SyncScheduler
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(pipeline *services.PipelineService, scheduler *services.SyncScheduler) *ScanHandler {
	return &ScanHandler{
		pipeline:  pipeline,
		scheduler: scheduler,
	}
}

// TriggerScan runs the pipeline for the calling user right now. The
// per-user lock is shared with the scheduler so a manual scan never
// overlaps a scheduled one.
// POST /api/scan?days=N
func (h *ScanHandler) TriggerScan(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	days := 0
	if parsed, err := strconv.Atoi(c.Query("days")); err == nil && parsed > 0 {
		days = parsed
	}

	if !h.scheduler.TryLockUser(userID) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SCAN_IN_PROGRESS",
				"message": "A scan for this mailbox is already running",
			},
		})
		return
	}
	defer h.scheduler.UnlockUser(userID)

	summary, err := h.pipeline.Run(c.Request.Context(), userID, days)
	if err != nil {
		if errors.Is(err, services.ErrCredentialMissing) || errors.Is(err, services.ErrCredentialInvalid) {
			c.JSON(http.StatusPreconditionFailed, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CREDENTIAL_REQUIRED",
					"message": err.Error(),
				},
			})
			return
		}
		respondInternalError(c, "Scan failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

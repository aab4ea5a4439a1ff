package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sahana-h/job-parser/internal/api/middleware"
	"github.com/sahana-h/job-parser/internal/services"
)

// ApplicationHandler handles application listing and editing requests
type ApplicationHandler struct {
	reconcileService *services.ReconcileService
	logService       *services.LogService
}

// NewApplicationHandler creates a new ApplicationHandler instance
func NewApplicationHandler(reconcileService *services.ReconcileService, logService *services.LogService) *ApplicationHandler {
	return &ApplicationHandler{
		reconcileService: reconcileService,
		logService:       logService,
	}
}

// ListApplications returns the user's tracked applications
// GET /api/applications?days=N&status=S&search=Q&limit=L
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	query := services.ApplicationQuery{
		UserID: userID,
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
		query.Days = days
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		query.Limit = limit
	}

	applications, err := h.reconcileService.ListApplications(query)
	if err != nil {
		respondInternalError(c, "Failed to list applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"applications": applications,
			"count":        len(applications),
		},
	})
}

// GetStats returns per-status counts of the user's applications
// GET /api/stats
func (h *ApplicationHandler) GetStats(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	stats, err := h.reconcileService.GetStats(userID)
	if err != nil {
		respondInternalError(c, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// UpdateStatusRequest represents the status update request body
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus sets the status of one application by hand
// PATCH /api/applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid application id",
			},
		})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request body",
				"details": err.Error(),
			},
		})
		return
	}

	record, err := h.reconcileService.UpdateStatus(userID, uint(id), req.Status)
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Application not found",
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// GetLogs returns the user's recent activity log
// GET /api/logs?level=L&module=M&page=P&limit=N
func (h *ApplicationHandler) GetLogs(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		respondUnauthenticated(c)
		return
	}

	query := services.LogQuery{
		UserID: userID,
		Level:  c.Query("level"),
		Module: c.Query("module"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = limit
	}

	result, err := h.logService.QueryLogs(query)
	if err != nil {
		respondInternalError(c, "Failed to query logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total": result.Total,
			"logs":  result.Logs,
		},
	})
}

func respondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "AUTH_FAILED",
			"message": "User not authenticated",
		},
	})
}

func respondInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": message,
		},
	})
}

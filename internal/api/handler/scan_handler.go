package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minhvt/mealstock/internal/api/dto"
	"github.com/minhvt/mealstock/internal/jobstore"
	"github.com/minhvt/mealstock/internal/scan"
)

// CreateScan handles POST /api/v1/scan
// Enqueues a barcode scan job and returns its id for polling.
func (h *ScanHandler) CreateScan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	jobID, err := h.processor.EnqueueScanJob(req.Operation, req.Barcode)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidOperation) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "operation must be add or remove",
			})
			return
		}
		h.logger.Error("Failed to enqueue scan job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue scan job",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.ScanResponse{
		JobID:  jobID,
		Status: jobstore.StatusPending,
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the latest snapshot of a job.
func (h *ScanHandler) GetJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be an integer",
		})
		return
	}

	job, ok := h.processor.GetJobStatus(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ResetJobs handles POST /api/v1/jobs/reset
// Bulk-clears all jobs, tickets, and buffers.
func (h *ScanHandler) ResetJobs(c *gin.Context) {
	h.store.Reset()
	c.Status(http.StatusNoContent)
}

// RecentItems handles GET /api/v1/scan/recent-items
// Lists products recently created by scans, most recent first.
func (h *ScanHandler) RecentItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": h.store.RecentItems(),
	})
}

// Activity handles GET /api/v1/scan/activity
// Lists the modification log, most recent first.
func (h *ScanHandler) Activity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"entries": h.store.Activity(),
	})
}

package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flipledger/backend/internal/infrastructure/scheduler"
	"github.com/flipledger/backend/internal/interfaces/http/dto"
)

// ReconcileTrigger submits reconciliation passes and reports history
type ReconcileTrigger interface {
	TriggerNow() (uuid.UUID, error)
	History(limit int) []*scheduler.ReconcileJob
}

// ReconcileHandler exposes on-demand reconciliation
type ReconcileHandler struct {
	BaseHandler
	trigger ReconcileTrigger
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(trigger ReconcileTrigger) *ReconcileHandler {
	return &ReconcileHandler{trigger: trigger}
}

// RegisterRoutes registers reconcile routes
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reconcile := rg.Group("/reconcile")
	{
		reconcile.POST("/run", h.Run)
		reconcile.GET("/history", h.History)
	}
}

// Run handles POST /reconcile/run. The pass is queued, not awaited;
// poll the history endpoint for the outcome.
func (h *ReconcileHandler) Run(c *gin.Context) {
	jobID, err := h.trigger.TriggerNow()
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.ErrorWithCode(c, dto.ErrCodeSchedulerStopped, err.Error())
		case errors.Is(err, scheduler.ErrJobQueueFull):
			h.ErrorWithCode(c, dto.ErrCodeSchedulerBusy, err.Error())
		default:
			h.InternalError(c, err.Error())
		}
		return
	}
	h.Accepted(c, gin.H{"job_id": jobID.String()})
}

// History handles GET /reconcile/history
func (h *ReconcileHandler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			h.BadRequest(c, "limit must be an integer between 1 and 200")
			return
		}
		limit = parsed
	}

	jobs := h.trigger.History(limit)
	items := make([]dto.ReconcileJobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, toJobResponse(job))
	}
	h.Success(c, items)
}

func toJobResponse(job *scheduler.ReconcileJob) dto.ReconcileJobResponse {
	resp := dto.ReconcileJobResponse{
		ID:         job.ID.String(),
		Trigger:    job.Trigger,
		Status:     string(job.Status),
		Error:      job.Error,
		RetryCount: job.RetryCount,
		Report:     job.Report,
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

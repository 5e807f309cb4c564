package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	applisting "github.com/flipledger/backend/internal/application/listing"
	"github.com/flipledger/backend/internal/infrastructure/logger"
	"github.com/flipledger/backend/internal/interfaces/http/dto"
)

// BatchSubmitter runs a cross-listing batch
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, req applisting.BatchRequest) (*applisting.BatchResult, error)
}

// SyncHandler handles cross-listing sync endpoints
type SyncHandler struct {
	BaseHandler
	orchestrator BatchSubmitter
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator BatchSubmitter) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/batch", h.SubmitBatch)
	}
}

// SubmitBatch handles POST /sync/batch. The batch is processed
// synchronously; per-item outcomes come back in input order.
func (h *SyncHandler) SubmitBatch(c *gin.Context) {
	var req dto.BatchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := req.ToApplication()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeValidation, err.Error())
		return
	}

	result, err := h.orchestrator.SubmitBatch(c.Request.Context(), batch)
	if err != nil {
		// Batch-level errors are pre-flight failures; nothing was attempted
		logger.FromGin(c).Warn("batch rejected", zap.Error(err))
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, result)
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/flipledger/backend/internal/domain/listing"
	"github.com/flipledger/backend/internal/interfaces/http/dto"
)

// MappingHandler exposes the cross-listing mapping ledger
type MappingHandler struct {
	BaseHandler
	mappings listing.MappingReader
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappings listing.MappingReader) *MappingHandler {
	return &MappingHandler{mappings: mappings}
}

// RegisterRoutes registers mapping routes
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mappings := rg.Group("/mappings")
	{
		mappings.GET("", h.List)
		mappings.GET("/stats", h.Stats)
		mappings.GET("/by-source/:sourceListingId", h.GetBySourceListing)
	}
}

// List handles GET /mappings with optional status and base_sku filters
func (h *MappingHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := listing.MappingFilter{
		BaseSku:  req.BaseSku,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := listing.MappingStatus(req.Status)
		if !status.IsValid() {
			h.ErrorWithCode(c, dto.ErrCodeValidation, "unknown mapping status: "+req.Status)
			return
		}
		filter.Status = &status
	}

	mappings, err := h.mappings.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, err.Error())
		return
	}
	total, err := h.mappings.Count(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, err.Error())
		return
	}

	items := make([]dto.MappingResponse, 0, len(mappings))
	for i := range mappings {
		items = append(items, dto.MappingResponseFromDomain(&mappings[i]))
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// Stats handles GET /mappings/stats
func (h *MappingHandler) Stats(c *gin.Context) {
	stats, err := h.mappings.Stats(c.Request.Context())
	if err != nil {
		h.InternalError(c, err.Error())
		return
	}
	h.Success(c, stats)
}

// GetBySourceListing handles GET /mappings/by-source/:sourceListingId
func (h *MappingHandler) GetBySourceListing(c *gin.Context) {
	sourceListingID := c.Param("sourceListingId")
	mapping, err := h.mappings.FindBySourceListing(c.Request.Context(), sourceListingID)
	if err != nil {
		if errors.Is(err, listing.ErrMappingNotFound) {
			h.NotFound(c, "no mapping for source listing "+sourceListingID)
			return
		}
		h.InternalError(c, err.Error())
		return
	}
	h.Success(c, dto.MappingResponseFromDomain(mapping))
}

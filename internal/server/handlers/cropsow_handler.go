package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/service/cropsow"
)

// CropSowHandler serves crop assignments.
type CropSowHandler struct {
	svc    *cropsow.Service
	logger *zap.Logger
}

// NewCropSowHandler constructs the HTTP handler adapter.
func NewCropSowHandler(svc *cropsow.Service, logger *zap.Logger) *CropSowHandler {
	return &CropSowHandler{svc: svc, logger: nopIfNil(logger)}
}

// Create sows a land parcel, drawing the seed from agriculture stock.
func (h *CropSowHandler) Create(c *gin.Context) {
	var req cropsow.CreateRequest
	if !bind(c, h.logger, &req) {
		return
	}
	sow, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "Crop assignment created successfully", sow)
}

// List returns assignments; ?all=true disables paging.
func (h *CropSowHandler) List(c *gin.Context) {
	page := pageOf(c)
	sows, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Crop assignments retrieved successfully", page, total, sows)
}

func (h *CropSowHandler) Get(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	sow, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop assignment retrieved successfully", sow)
}

// Update applies a partial change; moving to Harvested books the yield.
func (h *CropSowHandler) Update(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req cropsow.UpdateRequest
	if !bind(c, h.logger, &req) {
		return
	}
	sow, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop assignment updated successfully", sow)
}

func (h *CropSowHandler) Delete(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop assignment deleted successfully", nil)
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/service/crops"
)

// CropHandler serves crops. Creating a crop provisions its ledger accounts.
type CropHandler struct {
	svc    *crops.Service
	logger *zap.Logger
}

// NewCropHandler constructs the HTTP handler adapter.
func NewCropHandler(svc *crops.Service, logger *zap.Logger) *CropHandler {
	return &CropHandler{svc: svc, logger: nopIfNil(logger)}
}

func (h *CropHandler) Create(c *gin.Context) {
	var crop models.Crop
	if !bind(c, h.logger, &crop) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), &crop)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "Crop created successfully", out)
}

func (h *CropHandler) List(c *gin.Context) {
	page := pageOf(c)
	list, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Crops retrieved successfully", page, total, list)
}

func (h *CropHandler) Get(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	crop, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop retrieved successfully", crop)
}

func (h *CropHandler) Update(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var crop models.Crop
	if !bind(c, h.logger, &crop) {
		return
	}
	out, err := h.svc.Update(c.Request.Context(), id, &crop)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop updated successfully", out)
}

func (h *CropHandler) Delete(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop deleted successfully", nil)
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/service/agro"
)

// AgroHandler serves harvested crop stock.
type AgroHandler struct {
	svc    *agro.Service
	logger *zap.Logger
}

// NewAgroHandler constructs the HTTP handler adapter.
func NewAgroHandler(svc *agro.Service, logger *zap.Logger) *AgroHandler {
	return &AgroHandler{svc: svc, logger: nopIfNil(logger)}
}

func (h *AgroHandler) Add(c *gin.Context) {
	var req agro.AddRequest
	if !bind(c, h.logger, &req) {
		return
	}
	inv, err := h.svc.Add(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agro inventory added successfully", inv)
}

func (h *AgroHandler) Remove(c *gin.Context) {
	var req agro.RemoveRequest
	if !bind(c, h.logger, &req) {
		return
	}
	inv, err := h.svc.Remove(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agro inventory removed successfully", inv)
}

func (h *AgroHandler) List(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Agro inventory retrieved successfully", page, total, items)
}

func (h *AgroHandler) Get(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	inv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agro inventory retrieved successfully", inv)
}

// Adjust corrects a record, recording the difference as an adjustment movement.
func (h *AgroHandler) Adjust(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	var req agro.AdjustRequest
	if !bind(c, h.logger, &req) {
		return
	}
	inv, err := h.svc.Adjust(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agro inventory updated successfully", inv)
}

func (h *AgroHandler) Delete(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agro inventory deleted successfully", nil)
}

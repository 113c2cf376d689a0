package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/service/inventory"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler serves item stock.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, logger: nopIfNil(logger)}
}

// Add receives stock at a unit cost.
func (h *InventoryHandler) Add(c *gin.Context) {
	var req inventory.AddRequest
	if !bind(c, h.logger, &req) {
		return
	}
	inv, err := h.svc.AddStock(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Stock added successfully", inv)
}

// Remove takes stock out at its average cost.
func (h *InventoryHandler) Remove(c *gin.Context) {
	var req inventory.RemoveRequest
	if !bind(c, h.logger, &req) {
		return
	}
	inv, err := h.svc.RemoveStock(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Stock removed successfully", inv)
}

// List returns stock records, filtered by ?owner.
func (h *InventoryHandler) List(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.List(c.Request.Context(), models.Owner(c.Query("owner")), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Inventory retrieved successfully", page, total, items)
}

// Get returns one stock record.
func (h *InventoryHandler) Get(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	inv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Inventory retrieved successfully", inv)
}

// Movements returns the stock audit trail, filtered by ?item and ?owner.
func (h *InventoryHandler) Movements(c *gin.Context) {
	item, valid := objectIDQuery(c, "item")
	if !valid {
		return
	}
	page := pageOf(c)
	mvs, total, err := h.svc.Movements(c.Request.Context(), inventory.MovementFilter{Item: item, Owner: models.Owner(c.Query("owner"))}, page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Stock movements retrieved successfully", page, total, mvs)
}

// LowStock lists stock at or below threshold.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	rows, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Low stock retrieved successfully", rows)
}

// Export downloads the stock valuation workbook.
func (h *InventoryHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportValuation(c.Request.Context(), models.Owner(c.Query("owner")))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/repository"
)

// Register is the CRUD surface a records service offers.
type Register[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	List(ctx context.Context, filter repository.Filter, page models.Page) ([]T, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, in *T) (*T, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// QueryFilter maps a query parameter onto a document field.
type QueryFilter struct {
	Param    string
	Field    string
	ObjectID bool
}

// RecordHandler serves one register.
type RecordHandler[T any] struct {
	svc     Register[T]
	label   string
	filters []QueryFilter
	logger  *zap.Logger
}

// NewRecordHandler constructs a handler; label names the record in messages ("Farmer").
func NewRecordHandler[T any](svc Register[T], label string, logger *zap.Logger, filters ...QueryFilter) *RecordHandler[T] {
	return &RecordHandler[T]{svc: svc, label: label, filters: filters, logger: nopIfNil(logger)}
}

// Mount registers the five CRUD routes under g.
func (h *RecordHandler[T]) Mount(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *RecordHandler[T]) Create(c *gin.Context) {
	doc := new(T)
	if !bind(c, h.logger, doc) {
		return
	}
	out, err := h.svc.Create(c.Request.Context(), doc)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, h.label+" created successfully", out)
}

func (h *RecordHandler[T]) List(c *gin.Context) {
	filter := repository.Filter{}
	for _, f := range h.filters {
		raw := c.Query(f.Param)
		if raw == "" {
			continue
		}
		if !f.ObjectID {
			filter[f.Field] = raw
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			badRequest(c, "invalid "+f.Param)
			return
		}
		filter[f.Field] = id
	}

	page := pageOf(c)
	list, total, err := h.svc.List(c.Request.Context(), filter, page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, h.label+" records retrieved successfully", page, total, list)
}

func (h *RecordHandler[T]) Get(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, h.label+" retrieved successfully", doc)
}

func (h *RecordHandler[T]) Update(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	doc := new(T)
	if !bind(c, h.logger, doc) {
		return
	}
	out, err := h.svc.Update(c.Request.Context(), id, doc)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, h.label+" updated successfully", out)
}

func (h *RecordHandler[T]) Delete(c *gin.Context) {
	id, valid := idParam(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, h.label+" deleted successfully", nil)
}

// Package handlers adapts the domain services to HTTP.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PageResponse is the envelope of paginated listings.
type PageResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	Total       int64       `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	Data        interface{} `json:"data"`
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func paged(c *gin.Context, message string, page models.Page, total int64, data interface{}) {
	current := page.Normalized().Page
	if page.All {
		current = 1
	}
	c.JSON(http.StatusOK, PageResponse{
		Success:     true,
		Message:     message,
		Total:       total,
		TotalPages:  page.TotalPages(total),
		CurrentPage: current,
		Data:        data,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: message, Error: message})
}

// fail maps a service error to a status code. Unexpected errors are logged and echoed.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.KindValidation, models.KindConflict:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Message: err.Error(), Error: err.Error()})
}

// pageOf reads page, limit and all from the query string.
func pageOf(c *gin.Context) models.Page {
	var p models.Page
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = v
	}
	p.All = c.Query("all") == "true"
	return p.Normalized()
}

// idParam parses the :id path parameter, answering 400 when it is malformed.
func idParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// objectIDQuery parses an optional ObjectID query parameter.
func objectIDQuery(c *gin.Context, key string) (*primitive.ObjectID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return nil, false
	}
	return &id, true
}

func bind(c *gin.Context, logger *zap.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warn("invalid request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

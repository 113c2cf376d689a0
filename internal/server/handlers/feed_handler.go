package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/service/feed"
)

const dateLayout = "2006-01-02"

// FeedHandler serves cattle feed usage.
type FeedHandler struct {
	svc    *feed.Service
	logger *zap.Logger
}

// NewFeedHandler constructs the HTTP handler adapter.
func NewFeedHandler(svc *feed.Service, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{svc: svc, logger: nopIfNil(logger)}
}

// Log records feed given to an animal and posts its cost.
func (h *FeedHandler) Log(c *gin.Context) {
	var req feed.LogRequest
	if !bind(c, h.logger, &req) {
		return
	}
	usage, err := h.svc.Log(c.Request.Context(), req)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	created(c, "Feed usage logged successfully", usage)
}

// List filters by ?cattleId, ?fromDate and ?toDate. A bare toDate day is inclusive.
func (h *FeedHandler) List(c *gin.Context) {
	cattle, valid := objectIDQuery(c, "cattleId")
	if !valid {
		return
	}
	from, valid := dateQuery(c, "fromDate", false)
	if !valid {
		return
	}
	to, valid := dateQuery(c, "toDate", true)
	if !valid {
		return
	}

	page := pageOf(c)
	usages, total, err := h.svc.List(c.Request.Context(), feed.ListFilter{Cattle: cattle, From: from, To: to}, page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	paged(c, "Feed usage retrieved successfully", page, total, usages)
}

// dateQuery accepts RFC 3339 or a calendar day. With endOfDay a calendar day
// covers the whole day.
func dateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		badRequest(c, "invalid "+key+", expected YYYY-MM-DD")
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

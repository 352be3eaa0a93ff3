package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkrelay/pkg/types"
)

// EventHandlers 事件归档端点
type EventHandlers struct {
	journal EventLister
}

// NewEventHandlers 创建事件归档处理器；journal 为 nil 时端点返回 503
func NewEventHandlers(journal EventLister) *EventHandlers {
	return &EventHandlers{journal: journal}
}

// RegisterRoutes 注册路由
func (h *EventHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events/:type", h.List)
}

// List GET /events/:type?limit=
func (h *EventHandlers) List(c *gin.Context) {
	t := types.EventType(c.Param("type"))
	if !knownEventType(t) {
		badRequest(c, "unknown event type: %q", t)
		return
	}
	if h.journal == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event journal disabled"})
		return
	}
	limit, ok := queryUint(c, "limit", defaultPageLimit)
	if !ok {
		return
	}
	records, err := h.journal.List(c.Request.Context(), t, int(min(limit, maxPageLimit)))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, records)
}

func knownEventType(t types.EventType) bool {
	for _, known := range types.AllProverEventTypes() {
		if known == t {
			return true
		}
	}
	return false
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/zkrelay/internal/api/http/types"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// RequestHandlers 证明请求端点
type RequestHandlers struct {
	requests RequestAPI
}

// NewRequestHandlers 创建证明请求处理器
func NewRequestHandlers(requests RequestAPI) *RequestHandlers {
	return &RequestHandlers{requests: requests}
}

// RegisterRoutes 注册路由
//
//	POST /requests       创建请求
//	GET  /requests       分页列出
//	GET  /requests/:id   查询单个请求
func (h *RequestHandlers) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/requests")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// CreateRequestBody 创建请求参数；target_selector 为 0 时由随机数选择目标
type CreateRequestBody struct {
	Requester      string `json:"requester" binding:"required"`
	SourceDomain   string `json:"source_domain" binding:"required"`
	TargetSelector uint64 `json:"target_selector"`
}

// Create POST /requests
func (h *RequestHandlers) Create(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	requester, ok := parseAddress(c, "requester", body.Requester)
	if !ok {
		return
	}
	id, err := h.requests.Create(c.Request.Context(), requester, body.SourceDomain, body.TargetSelector)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"request_id": id})
}

// Get GET /requests/:id
func (h *RequestHandlers) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	req, err := h.requests.Get(id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, req)
}

// List GET /requests?offset=&limit=
func (h *RequestHandlers) List(c *gin.Context) {
	offset, ok := queryUint(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryUint(c, "limit", defaultPageLimit)
	if !ok {
		return
	}
	if limit == 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}
	respond(c, http.StatusOK, apitypes.PageResponse{
		Items: h.requests.List(offset, limit),
		Page:  apitypes.PageMeta{Offset: offset, Limit: limit, Total: h.requests.Count()},
	})
}

package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// BatchHandlers 折叠批次端点
type BatchHandlers struct {
	batches BatchAPI
}

// NewBatchHandlers 创建折叠批次处理器
func NewBatchHandlers(batches BatchAPI) *BatchHandlers {
	return &BatchHandlers{batches: batches}
}

// RegisterRoutes 注册路由
func (h *BatchHandlers) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/batches")
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/continue", h.Continue)
	g.POST("/:id/verify", h.Verify)
}

// CreateBatchBody 创建批次参数
type CreateBatchBody struct {
	Requester string   `json:"requester" binding:"required"`
	ProofIDs  []uint64 `json:"proof_ids" binding:"required"`
}

// ContinueBody 续折参数
type ContinueBody struct {
	Requester string `json:"requester" binding:"required"`
}

// VerifyBody 候选证明
type VerifyBody struct {
	Proof hexutil.Bytes `json:"proof" binding:"required"`
}

// Create POST /batches
func (h *BatchHandlers) Create(c *gin.Context) {
	var body CreateBatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	requester, ok := parseAddress(c, "requester", body.Requester)
	if !ok {
		return
	}
	id, err := h.batches.CreateBatch(c.Request.Context(), requester, body.ProofIDs)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"batch_id": id})
}

// Get GET /batches/:id
func (h *BatchHandlers) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	batch, err := h.batches.GetBatch(id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, batch)
}

// Continue POST /batches/:id/continue
func (h *BatchHandlers) Continue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body ContinueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	requester, ok := parseAddress(c, "requester", body.Requester)
	if !ok {
		return
	}
	if err := h.batches.ContinueFolding(c.Request.Context(), id, requester); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"batch_id": id})
}

// Verify POST /batches/:id/verify
func (h *BatchHandlers) Verify(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body VerifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	match, err := h.batches.VerifyFold(id, body.Proof)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"batch_id": id, "match": match})
}

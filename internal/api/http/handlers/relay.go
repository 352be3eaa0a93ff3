package handlers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/weisyn/zkrelay/pkg/types"
)

// RelayHandlers 跨域中继端点
type RelayHandlers struct {
	relay RelayAPI
}

// NewRelayHandlers 创建中继处理器
func NewRelayHandlers(relay RelayAPI) *RelayHandlers {
	return &RelayHandlers{relay: relay}
}

// RegisterRoutes 注册路由
func (h *RelayHandlers) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/relay")
	g.POST("/send", h.Send)
	g.GET("/fees", h.Fees)
	g.GET("/verified/:root", h.Verified)
}

// SendBody 发送参数
type SendBody struct {
	Destination    uint64        `json:"destination" binding:"required"`
	Receiver       string        `json:"receiver" binding:"required"`
	ResultRoot     common.Hash   `json:"result_root"`
	Proof          hexutil.Bytes `json:"proof"`
	PublicInputs   hexutil.Bytes `json:"public_inputs"`
	TargetSelector uint64        `json:"target_selector"`
	SourceDomain   string        `json:"source_domain"`
}

// Send POST /relay/send
func (h *RelayHandlers) Send(c *gin.Context) {
	var body SendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	receiver, ok := parseAddress(c, "receiver", body.Receiver)
	if !ok {
		return
	}
	id, err := h.relay.Send(c.Request.Context(), &types.SendRequest{
		Destination:         body.Destination,
		Receiver:            receiver,
		ResultRoot:          body.ResultRoot,
		ProofPayload:        body.Proof,
		PublicInputsPayload: body.PublicInputs,
		TargetSelector:      body.TargetSelector,
		SourceDomain:        body.SourceDomain,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusAccepted, gin.H{"message_id": id})
}

// Fees GET /relay/fees
func (h *RelayHandlers) Fees(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"fee_token": h.relay.FeeToken(),
		"balance":   h.relay.FeeBalance().Dec(),
	})
}

// Verified GET /relay/verified/:root
func (h *RelayHandlers) Verified(c *gin.Context) {
	raw := c.Param("root")
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		badRequest(c, "invalid result root: %q", raw)
		return
	}
	root := common.BytesToHash(b)
	respond(c, http.StatusOK, gin.H{
		"result_root":           root,
		"cross_domain_verified": h.relay.IsCrossDomainVerified(root),
	})
}

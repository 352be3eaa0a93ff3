// Package handlers provides HTTP API handlers for the proof relay service.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/internal/api/http/middleware"
	apitypes "github.com/weisyn/zkrelay/internal/api/http/types"
	"github.com/weisyn/zkrelay/internal/core/prover/journal"
	"github.com/weisyn/zkrelay/pkg/types"
)

// ==================== 📋 处理器依赖 ====================

// RequestAPI 证明请求
type RequestAPI interface {
	Create(ctx context.Context, requester common.Address, sourceDomain string, targetSelector uint64) (uint64, error)
	Get(id uint64) (*types.ProofRequest, error)
	Count() uint64
	List(offset, limit uint64) []*types.ProofRequest
}

// BatchAPI 折叠批次
type BatchAPI interface {
	CreateBatch(ctx context.Context, requester common.Address, proofIDs []uint64) (uint64, error)
	ContinueFolding(ctx context.Context, batchID uint64, requester common.Address) error
	VerifyFold(batchID uint64, candidateProof []byte) (bool, error)
	GetBatch(batchID uint64) (*types.NovaBatch, error)
}

// RelayAPI 跨域中继
type RelayAPI interface {
	Send(ctx context.Context, req *types.SendRequest) (types.MessageID, error)
	IsCrossDomainVerified(root common.Hash) bool
	FeeBalance() *uint256.Int
	FeeToken() common.Address
}

// EventLister 事件归档查询
type EventLister interface {
	List(ctx context.Context, t types.EventType, limit int) ([]journal.Record, error)
}

// ==================== 🎯 响应工具 ====================

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, apitypes.NewSuccessResponse(data).WithRequestID(middleware.GetRequestID(c)))
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	middleware.WriteError(c, http.StatusBadRequest, apitypes.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// fail 交给 ErrorHandler 分类输出
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid %s: %q", name, c.Param(name))
		return 0, false
	}
	return id, true
}

func parseAddress(c *gin.Context, field, value string) (common.Address, bool) {
	if !common.IsHexAddress(value) {
		badRequest(c, "invalid %s address: %q", field, value)
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

func queryUint(c *gin.Context, name string, def uint64) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid query %s: %q", name, raw)
		return 0, false
	}
	return v, true
}

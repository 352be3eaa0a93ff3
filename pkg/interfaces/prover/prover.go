// Package prover 定义证明编排子系统对外暴露的服务接口
package prover

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkrelay/pkg/types"
)

// RequestReader 证明请求只读视图（供折叠引擎、API 使用）
type RequestReader interface {
	// Get 获取请求副本；id 为 0 或超过已分配计数时返回 ErrNotFound
	Get(id uint64) (*types.ProofRequest, error)
}

// RequestService 证明请求注册表
type RequestService interface {
	RequestReader

	// Create 创建请求；targetSelector 为 0 时先请求随机数
	Create(ctx context.Context, requester common.Address, sourceDomain string, targetSelector uint64) (uint64, error)

	// Count 已分配的请求数量
	Count() uint64
}

// ResultSet 本地已验证结果根集合
type ResultSet interface {
	Add(root common.Hash)
	Contains(root common.Hash) bool
}

// FoldingService 递归折叠引擎
type FoldingService interface {
	CreateBatch(ctx context.Context, requester common.Address, proofIDs []uint64) (uint64, error)
	ContinueFolding(ctx context.Context, batchID uint64, requester common.Address) error
	VerifyFold(batchID uint64, candidateProof []byte) (bool, error)
	GetBatch(batchID uint64) (*types.NovaBatch, error)
}

// RelayService 跨域中继
type RelayService interface {
	Send(ctx context.Context, req *types.SendRequest) (types.MessageID, error)
	OnReceive(ctx context.Context, msg *types.InboundMessage) error
	IsCrossDomainVerified(root common.Hash) bool
}

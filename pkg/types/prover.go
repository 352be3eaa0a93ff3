// Package types provides proof orchestration type definitions.
package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CorrelationID 外部预言机为一次派发返回的不透明标识
type CorrelationID string

// MessageID 跨域消息标识（由路由器分配）
type MessageID string

// CorrelationPhase 关联表中记录的续接阶段
type CorrelationPhase string

const (
	// PhaseRandomness 等待随机数回调（目标高度未定）
	PhaseRandomness CorrelationPhase = "randomness"
	// PhaseCompute 等待证明计算回调
	PhaseCompute CorrelationPhase = "compute"
	// PhaseFold 等待递归折叠回调
	PhaseFold CorrelationPhase = "fold"
)

// Continuation 关联表条目：外部请求ID所对应的内部续接
type Continuation struct {
	Phase CorrelationPhase `json:"phase"`
	RefID uint64           `json:"ref_id"` // 请求ID或批次ID
	Round uint64           `json:"round"`  // 折叠轮次（仅 PhaseFold 有意义）
}

// ProofRequest 一次“证明某个域在某高度的状态”的请求
//
// 生命周期：
//   - Create 创建，TargetSelector 为 0 时由随机数回调写入一次
//   - ResultRoot/Completed/Valid 由计算回调写入一次，此后不可变
type ProofRequest struct {
	ID             uint64         `json:"id"`
	Requester      common.Address `json:"requester"`
	CreatedAt      time.Time      `json:"created_at"`
	SourceDomain   string         `json:"source_domain"`
	TargetSelector uint64         `json:"target_selector"`
	ResultRoot     common.Hash    `json:"result_root"`
	Completed      bool           `json:"completed"`
	Valid          bool           `json:"valid"`
}

// Clone 返回请求的副本
func (r *ProofRequest) Clone() *ProofRequest {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// NovaInstance 一轮折叠产生的实例，产生后不再修改
type NovaInstance struct {
	StepIn         uint64      `json:"step_in"`
	StepOut        uint64      `json:"step_out"`
	ProgramCounter uint64      `json:"program_counter"`
	StateRootIn    common.Hash `json:"state_root_in"`
	StateRootOut   common.Hash `json:"state_root_out"`
	NullifierHash  common.Hash `json:"nullifier_hash"`
	Valid          bool        `json:"valid"`
}

// NovaBatch 递归折叠批次
type NovaBatch struct {
	ID             uint64         `json:"id"`
	ProofIDs       []uint64       `json:"proof_ids"`
	Requester      common.Address `json:"requester"`
	CreatedAt      time.Time      `json:"created_at"`
	RecursionDepth uint64         `json:"recursion_depth"`
	AggregatedHash common.Hash    `json:"aggregated_hash"`
	FoldedInstance NovaInstance   `json:"folded_instance"`
	Completed      bool           `json:"completed"`

	// RoundFailed 当前轮次的回调带回了错误，允许以相同深度重新派发
	RoundFailed bool `json:"round_failed"`
	// History 之前各轮的折叠实例（只追加）
	History []NovaInstance `json:"history,omitempty"`
}

// Clone 返回批次的深拷贝
func (b *NovaBatch) Clone() *NovaBatch {
	if b == nil {
		return nil
	}
	cp := *b
	cp.ProofIDs = append([]uint64(nil), b.ProofIDs...)
	cp.History = append([]NovaInstance(nil), b.History...)
	return &cp
}

// CrossChainProof 从其他执行域收到的已验证状态根
type CrossChainProof struct {
	ResultRoot          common.Hash `json:"result_root"`
	TargetSelector      uint64      `json:"target_selector"`
	SourceDomain        string      `json:"source_domain"`
	ProofPayload        []byte      `json:"proof_payload"`
	PublicInputsPayload []byte      `json:"public_inputs_payload"`
	CreatedAt           uint64      `json:"created_at"`
}

// ComputeRequest 派发给计算预言机的任务描述
type ComputeRequest struct {
	Source         string   `json:"source"`
	Args           []string `json:"args"`
	SubscriptionID uint64   `json:"subscription_id"`
	GasLimit       uint32   `json:"gas_limit"`
}

// OutboundMessage 发往其他域的消息
type OutboundMessage struct {
	Receiver common.Address `json:"receiver"`
	Data     []byte         `json:"data"`
	FeeToken common.Address `json:"fee_token"`
}

// InboundMessage 从其他域投递进来的消息
type InboundMessage struct {
	MessageID      MessageID      `json:"message_id"`
	SourceSelector uint64         `json:"source_selector"`
	Sender         common.Address `json:"sender"`
	Data           []byte         `json:"data"`
}

// SendRequest RelayEngine.Send 的参数
type SendRequest struct {
	Destination         uint64
	Receiver            common.Address
	ResultRoot          common.Hash
	ProofPayload        []byte
	PublicInputsPayload []byte
	TargetSelector      uint64
	SourceDomain        string
}

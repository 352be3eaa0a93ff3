// Package types provides event type definitions.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EventType 事件类型
type EventType string

// 证明编排子系统发布的事件类型
//
// 事件只供外部观察者消费，子系统内部不会重新订阅这些事件来驱动状态。
const (
	EventTypeRequested               EventType = "prover.requested"
	EventTypeRandomnessReceived      EventType = "prover.randomness_received"
	EventTypeVerified                EventType = "prover.verified"
	EventTypeFoldingStarted          EventType = "folding.started"
	EventTypeFoldingCompleted        EventType = "folding.completed"
	EventTypeFoldingError            EventType = "folding.error"
	EventTypeRecursiveProofGenerated EventType = "folding.recursive_proof_generated"
	EventTypeSent                    EventType = "relay.sent"
	EventTypeReceived                EventType = "relay.received"
	EventTypeStateRootVerified       EventType = "relay.state_root_verified"
)

// AllProverEventTypes 返回所有证明编排事件类型（用于日志归档等统一订阅）
func AllProverEventTypes() []EventType {
	return []EventType{
		EventTypeRequested,
		EventTypeRandomnessReceived,
		EventTypeVerified,
		EventTypeFoldingStarted,
		EventTypeFoldingCompleted,
		EventTypeFoldingError,
		EventTypeRecursiveProofGenerated,
		EventTypeSent,
		EventTypeReceived,
		EventTypeStateRootVerified,
	}
}

// RequestedEvent 新证明请求已创建
type RequestedEvent struct {
	RequestID uint64         `json:"request_id"`
	Requester common.Address `json:"requester"`
	Selector  uint64         `json:"selector"`
}

// RandomnessReceivedEvent 随机数回调已确定目标高度
type RandomnessReceivedEvent struct {
	RequestID      uint64       `json:"request_id"`
	RandomWord     *uint256.Int `json:"random_word"`
	SelectedTarget uint64       `json:"selected_target"`
}

// VerifiedEvent 证明请求已得出验证结论
type VerifiedEvent struct {
	RequestID  uint64      `json:"request_id"`
	Valid      bool        `json:"valid"`
	ResultRoot common.Hash `json:"result_root"`
}

// FoldingStartedEvent 折叠批次已创建并派发首轮
type FoldingStartedEvent struct {
	BatchID   uint64         `json:"batch_id"`
	ProofIDs  []uint64       `json:"proof_ids"`
	Requester common.Address `json:"requester"`
}

// FoldingCompletedEvent 一轮折叠已落地
type FoldingCompletedEvent struct {
	BatchID        uint64      `json:"batch_id"`
	AggregatedHash common.Hash `json:"aggregated_hash"`
	Valid          bool        `json:"valid"`
}

// FoldingErrorEvent 折叠回调带回错误
type FoldingErrorEvent struct {
	BatchID uint64 `json:"batch_id"`
	Round   uint64 `json:"round"`
	Reason  string `json:"reason"`
}

// RecursiveProofGeneratedEvent 递归证明产物
type RecursiveProofGeneratedEvent struct {
	BatchID uint64 `json:"batch_id"`
	Depth   uint64 `json:"depth"`
	Payload []byte `json:"payload"`
}

// SentEvent 跨域消息已发出
type SentEvent struct {
	MessageID   MessageID      `json:"message_id"`
	Destination uint64         `json:"destination"`
	Receiver    common.Address `json:"receiver"`
	ResultRoot  common.Hash    `json:"result_root"`
	Fee         *uint256.Int   `json:"fee"`
}

// ReceivedEvent 跨域消息已接收
type ReceivedEvent struct {
	MessageID    MessageID      `json:"message_id"`
	SourceDomain uint64         `json:"source_domain"`
	Sender       common.Address `json:"sender"`
	ResultRoot   common.Hash    `json:"result_root"`
}

// StateRootVerifiedEvent 跨域状态根已通过本地结构校验
type StateRootVerifiedEvent struct {
	ResultRoot   common.Hash `json:"result_root"`
	SourceDomain string      `json:"source_domain"`
	Valid        bool        `json:"valid"`
}

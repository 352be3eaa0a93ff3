// Package oracle 定义证明编排子系统依赖的外部协作者
//
// 📋 **协作者**：
//   - RandomnessOracle: 随机数（每个请求一个均匀随机字）
//   - ComputeOracle: 链下计算（拉取链数据并调用证明器）
//   - ProofVerifier: 证明验证（对本系统不透明）
//   - Router: 跨域消息传输（报价与投递）
//   - HeightSource: 当前链高度
//
// ⚠️ **投递约定**：
// 所有 Request 调用只返回关联ID，结果通过对应的 Consumer 回调异步送达；
// 实现不得在 Request 调用内部同步回调。
package oracle

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/pkg/types"
)

// RandomnessOracle 随机数预言机
type RandomnessOracle interface {
	// RequestRandomness 请求一个随机字，hint 仅用于追踪
	RequestRandomness(ctx context.Context, hint uint64) (types.CorrelationID, error)
}

// RandomnessConsumer 随机数回调接收方
type RandomnessConsumer interface {
	OnRandomnessFulfilled(ctx context.Context, id types.CorrelationID, randomWord *uint256.Int) error
}

// ComputeOracle 链下计算预言机
type ComputeOracle interface {
	// RequestCompute 派发计算任务
	RequestCompute(ctx context.Context, req *types.ComputeRequest) (types.CorrelationID, error)
}

// ComputeConsumer 计算回调接收方；errPayload 非空表示计算失败
type ComputeConsumer interface {
	OnComputeFulfilled(ctx context.Context, id types.CorrelationID, response []byte, errPayload []byte) error
}

// ComputeConsumerFunc 函数适配器
type ComputeConsumerFunc func(ctx context.Context, id types.CorrelationID, response []byte, errPayload []byte) error

// OnComputeFulfilled 实现 ComputeConsumer
func (f ComputeConsumerFunc) OnComputeFulfilled(ctx context.Context, id types.CorrelationID, response []byte, errPayload []byte) error {
	return f(ctx, id, response, errPayload)
}

// ProofVerifier 证明验证预言机，对相同输入结果确定
type ProofVerifier interface {
	Verify(ctx context.Context, proof []byte, publicInputs []byte) (bool, error)
}

// Router 跨域消息路由器
type Router interface {
	// Quote 报价：向 destination 发送 msg 需要的费用
	Quote(ctx context.Context, destination uint64, msg *types.OutboundMessage) (*uint256.Int, error)
	// Send 发送消息，返回消息ID
	Send(ctx context.Context, destination uint64, msg *types.OutboundMessage) (types.MessageID, error)
}

// MessageReceiver 入站消息接收方
type MessageReceiver interface {
	OnReceive(ctx context.Context, msg *types.InboundMessage) error
}

// HeightSource 当前链高度来源
type HeightSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// Package testutil 证明编排测试用的预言机与路由器替身
//
// 替身只记录调用并返回递增的关联ID，回调由测试显式投递。
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	eventconfig "github.com/weisyn/zkrelay/internal/config/event"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/event"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	eventiface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/types"
)

// ComputeCall 一次计算派发
type ComputeCall struct {
	ID      types.CorrelationID
	Request *types.ComputeRequest
}

// FakeCompute 计算预言机替身
type FakeCompute struct {
	mu    sync.Mutex
	seq   int
	calls []ComputeCall

	// Err 非空时 RequestCompute 直接失败
	Err error
}

// RequestCompute 实现 oracle.ComputeOracle
func (f *FakeCompute) RequestCompute(_ context.Context, req *types.ComputeRequest) (types.CorrelationID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.seq++
	id := types.CorrelationID(fmt.Sprintf("cmp-%d", f.seq))
	cp := *req
	cp.Args = append([]string(nil), req.Args...)
	f.calls = append(f.calls, ComputeCall{ID: id, Request: &cp})
	return id, nil
}

// Calls 全部派发记录
func (f *FakeCompute) Calls() []ComputeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ComputeCall(nil), f.calls...)
}

// Last 最近一次派发
func (f *FakeCompute) Last() ComputeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ComputeCall{}
	}
	return f.calls[len(f.calls)-1]
}

// Len 派发次数
func (f *FakeCompute) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// FakeRandomness 随机数预言机替身
type FakeRandomness struct {
	mu    sync.Mutex
	seq   int
	hints []uint64
	ids   []types.CorrelationID

	Err error
}

// RequestRandomness 实现 oracle.RandomnessOracle
func (f *FakeRandomness) RequestRandomness(_ context.Context, hint uint64) (types.CorrelationID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.seq++
	id := types.CorrelationID(fmt.Sprintf("rnd-%d", f.seq))
	f.hints = append(f.hints, hint)
	f.ids = append(f.ids, id)
	return id, nil
}

// LastID 最近一次请求的关联ID
func (f *FakeRandomness) LastID() types.CorrelationID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ids) == 0 {
		return ""
	}
	return f.ids[len(f.ids)-1]
}

// Len 请求次数
func (f *FakeRandomness) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

// FakeVerifier 验证预言机替身
type FakeVerifier struct {
	mu     sync.Mutex
	calls  int
	Result bool
	Err    error
}

// Verify 实现 oracle.ProofVerifier
func (f *FakeVerifier) Verify(context.Context, []byte, []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.Result, f.Err
}

// Calls 调用次数
func (f *FakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// SentMessage 一次路由发送
type SentMessage struct {
	ID          types.MessageID
	Destination uint64
	Message     *types.OutboundMessage
}

// FakeRouter 路由器替身，报价固定
type FakeRouter struct {
	mu   sync.Mutex
	seq  int
	sent []SentMessage

	Fee      *uint256.Int
	QuoteErr error
	SendErr  error
}

// Quote 实现 oracle.Router
func (f *FakeRouter) Quote(context.Context, uint64, *types.OutboundMessage) (*uint256.Int, error) {
	if f.QuoteErr != nil {
		return nil, f.QuoteErr
	}
	if f.Fee == nil {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Set(f.Fee), nil
}

// Send 实现 oracle.Router
func (f *FakeRouter) Send(_ context.Context, destination uint64, msg *types.OutboundMessage) (types.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return "", f.SendErr
	}
	f.seq++
	id := types.MessageID(fmt.Sprintf("msg-%d", f.seq))
	f.sent = append(f.sent, SentMessage{ID: id, Destination: destination, Message: msg})
	return id, nil
}

// Sent 发送记录
func (f *FakeRouter) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// StaticHeight 固定链高度
type StaticHeight struct {
	Height uint64
	Err    error
}

// CurrentHeight 实现 oracle.HeightSource
func (s *StaticHeight) CurrentHeight(context.Context) (uint64, error) {
	return s.Height, s.Err
}

// NewEventBus 带历史记录的事件总线
func NewEventBus() eventiface.EventBus {
	return event.New(eventconfig.New(nil))
}

// ComputeResponse 编码计算回调响应，编码失败直接 panic
func ComputeResponse(proof, publicInputs []byte) []byte {
	data, err := codec.EncodeComputeResponse(proof, publicInputs)
	if err != nil {
		panic(err)
	}
	return data
}

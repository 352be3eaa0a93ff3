package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/types"
)

// LoopbackRouter 进程内跨域路由器
//
// 📋 **约定**：
//   - 报价 = feePerByte × len(Data)
//   - 投递时 SourceSelector 为本域选择器，Sender 取消息的 Receiver（对称部署下两端地址相同）
//   - 目标域必须先 Connect，否则报价与发送都失败
type LoopbackRouter struct {
	localSelector uint64
	feePerByte    *uint256.Int
	delay         time.Duration
	logger        log.Logger

	mu        sync.RWMutex
	receivers map[uint64]oracle.MessageReceiver

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ oracle.Router = (*LoopbackRouter)(nil)

// NewLoopbackRouter 创建环回路由器
func NewLoopbackRouter(localSelector, feePerByte uint64, delay time.Duration, logger log.Logger) *LoopbackRouter {
	ctx, cancel := context.WithCancel(context.Background())
	return &LoopbackRouter{
		localSelector: localSelector,
		feePerByte:    uint256.NewInt(feePerByte),
		delay:         delay,
		logger:        logger,
		receivers:     make(map[uint64]oracle.MessageReceiver),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// LocalSelector 本域选择器
func (r *LoopbackRouter) LocalSelector() uint64 { return r.localSelector }

// Connect 把目标域选择器连接到接收方
func (r *LoopbackRouter) Connect(selector uint64, receiver oracle.MessageReceiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[selector] = receiver
}

func (r *LoopbackRouter) receiver(destination uint64) (oracle.MessageReceiver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rcv, ok := r.receivers[destination]
	if !ok {
		return nil, fmt.Errorf("%w: no route to selector %d", types.ErrInvalidArgument, destination)
	}
	return rcv, nil
}

// Quote 实现 oracle.Router
func (r *LoopbackRouter) Quote(_ context.Context, destination uint64, msg *types.OutboundMessage) (*uint256.Int, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", types.ErrInvalidArgument)
	}
	if _, err := r.receiver(destination); err != nil {
		return nil, err
	}
	size := uint256.NewInt(uint64(len(msg.Data)))
	return new(uint256.Int).Mul(r.feePerByte, size), nil
}

// Send 实现 oracle.Router
func (r *LoopbackRouter) Send(_ context.Context, destination uint64, msg *types.OutboundMessage) (types.MessageID, error) {
	if msg == nil {
		return "", fmt.Errorf("%w: nil message", types.ErrInvalidArgument)
	}
	rcv, err := r.receiver(destination)
	if err != nil {
		return "", err
	}
	if r.ctx.Err() != nil {
		return "", ErrStopped
	}

	inbound := &types.InboundMessage{
		MessageID:      types.MessageID(uuid.NewString()),
		SourceSelector: r.localSelector,
		Sender:         msg.Receiver,
		Data:           append([]byte(nil), msg.Data...),
	}
	r.wg.Add(1)
	go r.deliver(rcv, destination, inbound)
	return inbound.MessageID, nil
}

func (r *LoopbackRouter) deliver(rcv oracle.MessageReceiver, destination uint64, msg *types.InboundMessage) {
	defer r.wg.Done()

	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-r.ctx.Done():
		return
	case <-timer.C:
	}

	if err := rcv.OnReceive(r.ctx, msg); err != nil && r.logger != nil {
		r.logger.Warnf("跨域消息被拒绝: id=%s, destination=%d, err=%v", msg.MessageID, destination, err)
	}
}

// Stop 取消所有未投递的消息
func (r *LoopbackRouter) Stop() {
	r.cancel()
	r.wg.Wait()
}

package correlation

import (
	"context"
	"fmt"
	"sync"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Dispatcher 按续接阶段把计算回调分发给注册表或折叠引擎
//
// 计算预言机只有一个回调接收方，而请求证明与折叠共用同一个预言机。
type Dispatcher struct {
	table  *Table
	logger log.Logger

	mu       sync.RWMutex
	handlers map[types.CorrelationPhase]oracle.ComputeConsumer
}

// NewDispatcher 创建分发器
func NewDispatcher(table *Table, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		table:    table,
		logger:   logger,
		handlers: make(map[types.CorrelationPhase]oracle.ComputeConsumer),
	}
}

// Handle 注册某一阶段的回调处理者
func (d *Dispatcher) Handle(phase types.CorrelationPhase, consumer oracle.ComputeConsumer) {
	d.mu.Lock()
	d.handlers[phase] = consumer
	d.mu.Unlock()
}

// OnComputeFulfilled 实现 oracle.ComputeConsumer
func (d *Dispatcher) OnComputeFulfilled(ctx context.Context, id types.CorrelationID, response []byte, errPayload []byte) error {
	c, ok := d.table.Resolve(id)
	if !ok {
		if d.logger != nil {
			d.logger.Warnf("丢弃未知关联ID的计算回调: id=%s", id)
		}
		return nil
	}

	d.mu.RLock()
	h := d.handlers[c.Phase]
	d.mu.RUnlock()
	if h == nil {
		return fmt.Errorf("no compute handler for phase %s", c.Phase)
	}
	return h.OnComputeFulfilled(ctx, id, response, errPayload)
}

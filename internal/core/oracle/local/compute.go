// Package local 进程内预言机套件
//
// 📋 **组成**：
//   - ComputeOracle: 工作协程池执行链下计算，按 Source 路由到处理函数
//   - RandomnessOracle: crypto/rand 随机字
//   - LoopbackRouter: 按负载字节计费、异步投递到已连接域的路由器
//   - StaticHeight: 可调整的固定高度源
//   - DevProver: 本地 Groth16 证明器，生成 prove-state-v1 的真实证明
//
// ⚠️ 所有回调都在独立协程中投递，不会在 Request 调用内同步回调。
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	oracleconfig "github.com/weisyn/zkrelay/internal/config/oracle"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/types"
)

// ErrQueueFull 计算任务队列已满
var ErrQueueFull = errors.New("compute queue full")

// ErrStopped 预言机已停止
var ErrStopped = errors.New("oracle stopped")

// Handler 计算处理函数，返回响应或失败原因
type Handler func(ctx context.Context, req *types.ComputeRequest) ([]byte, error)

// computeTask 一次计算派发
type computeTask struct {
	id         types.CorrelationID
	req        *types.ComputeRequest
	enqueuedAt time.Time
}

// ComputeOracle 工作协程池计算预言机
//
// 🎯 **核心职责**：
//   - RequestCompute 只入队并返回关联ID，队列满时立即失败
//   - 工作协程等待投递延迟后执行处理函数，再回调消费者
//   - 未注册的 Source 以错误载荷回调
type ComputeOracle struct {
	consumer oracle.ComputeConsumer
	workers  int
	delay    time.Duration
	logger   log.Logger

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	queue chan *computeTask

	startMu sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

var (
	_ oracle.ComputeOracle   = (*ComputeOracle)(nil)
	_ metrics.MemoryReporter = (*ComputeOracle)(nil)
)

// NewComputeOracle 创建计算预言机
func NewComputeOracle(opts *oracleconfig.OracleOptions, consumer oracle.ComputeConsumer, logger log.Logger) (*ComputeOracle, error) {
	if consumer == nil {
		return nil, fmt.Errorf("%w: compute consumer is nil", types.ErrInvalidArgument)
	}
	if opts == nil {
		opts = oracleconfig.New(nil).GetOptions()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ComputeOracle{
		consumer: consumer,
		workers:  workers,
		delay:    opts.DeliveryDelay,
		logger:   logger,
		handlers: make(map[string]Handler),
		queue:    make(chan *computeTask, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Register 注册 Source 对应的处理函数
func (o *ComputeOracle) Register(source string, h Handler) {
	o.handlersMu.Lock()
	defer o.handlersMu.Unlock()
	o.handlers[source] = h
}

// RequestCompute 实现 oracle.ComputeOracle
func (o *ComputeOracle) RequestCompute(_ context.Context, req *types.ComputeRequest) (types.CorrelationID, error) {
	if req == nil || req.Source == "" {
		return "", fmt.Errorf("%w: empty compute request", types.ErrInvalidArgument)
	}
	if o.ctx.Err() != nil {
		return "", ErrStopped
	}

	task := &computeTask{
		id:         types.CorrelationID(uuid.NewString()),
		req:        req,
		enqueuedAt: time.Now(),
	}
	select {
	case o.queue <- task:
		o.debugf("计算任务已入队: id=%s, source=%s", task.id, req.Source)
		return task.id, nil
	default:
		return "", fmt.Errorf("%w: capacity=%d", ErrQueueFull, cap(o.queue))
	}
}

// Start 启动工作协程
func (o *ComputeOracle) Start() {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if o.started || o.stopped {
		return
	}
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go o.run(i)
	}
	o.started = true
	if o.logger != nil {
		o.logger.Infof("✅ 本地计算预言机已启动: workers=%d, queue=%d", o.workers, cap(o.queue))
	}
}

// Stop 停止工作协程，队列中未处理的任务被丢弃
func (o *ComputeOracle) Stop() {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if o.stopped {
		return
	}
	o.cancel()
	o.wg.Wait()
	o.stopped = true
	if o.logger != nil {
		o.logger.Infof("✅ 本地计算预言机已停止: dropped=%d", len(o.queue))
	}
}

func (o *ComputeOracle) run(workerID int) {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case task := <-o.queue:
			if !o.wait(o.delay) {
				return
			}
			o.process(workerID, task)
		}
	}
}

// wait 等待投递延迟，停止时返回 false
func (o *ComputeOracle) wait(d time.Duration) bool {
	if d <= 0 {
		return o.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-o.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (o *ComputeOracle) process(workerID int, task *computeTask) {
	o.processed.Add(1)

	o.handlersMu.RLock()
	h := o.handlers[task.req.Source]
	o.handlersMu.RUnlock()

	var (
		response   []byte
		errPayload []byte
	)
	if h == nil {
		errPayload = []byte(fmt.Sprintf("unknown compute source: %s", task.req.Source))
	} else {
		resp, err := h(o.ctx, task.req)
		switch {
		case err != nil:
			errPayload = []byte(err.Error())
		case len(resp) == 0:
			errPayload = []byte("empty compute response")
		default:
			response = resp
		}
	}

	if errPayload != nil {
		o.failed.Add(1)
		if o.logger != nil {
			o.logger.Warnf("工作协程%d计算失败: id=%s, source=%s, reason=%s", workerID, task.id, task.req.Source, errPayload)
		}
	} else {
		o.succeeded.Add(1)
	}

	if err := o.consumer.OnComputeFulfilled(o.ctx, task.id, response, errPayload); err != nil && o.logger != nil {
		o.logger.Warnf("计算回调被拒绝: id=%s, err=%v", task.id, err)
	}
	o.debugf("计算任务已投递: id=%s, latency=%s", task.id, time.Since(task.enqueuedAt))
}

// Stats 处理统计
func (o *ComputeOracle) Stats() (processed, succeeded, failed int64) {
	return o.processed.Load(), o.succeeded.Load(), o.failed.Load()
}

// ModuleName 实现 metrics.MemoryReporter
func (o *ComputeOracle) ModuleName() string { return "oracle.compute" }

// CollectMemoryStats 实现 metrics.MemoryReporter
func (o *ComputeOracle) CollectMemoryStats() metrics.ModuleMemoryStats {
	o.handlersMu.RLock()
	handlers := len(o.handlers)
	o.handlersMu.RUnlock()
	return metrics.ModuleMemoryStats{
		Module:      o.ModuleName(),
		Objects:     o.processed.Load(),
		CacheItems:  int64(handlers),
		QueueLength: int64(len(o.queue)),
	}
}

func (o *ComputeOracle) debugf(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Debugf(format, args...)
	}
}

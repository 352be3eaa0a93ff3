package local

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/types"
)

// RandomnessOracle 基于 crypto/rand 的随机数预言机
type RandomnessOracle struct {
	delay  time.Duration
	logger log.Logger

	mu       sync.RWMutex
	consumer oracle.RandomnessConsumer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ oracle.RandomnessOracle = (*RandomnessOracle)(nil)

// NewRandomnessOracle 创建随机数预言机
func NewRandomnessOracle(delay time.Duration, logger log.Logger) *RandomnessOracle {
	ctx, cancel := context.WithCancel(context.Background())
	return &RandomnessOracle{delay: delay, logger: logger, ctx: ctx, cancel: cancel}
}

// Bind 绑定回调接收方
func (o *RandomnessOracle) Bind(consumer oracle.RandomnessConsumer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.consumer = consumer
}

// RequestRandomness 实现 oracle.RandomnessOracle
func (o *RandomnessOracle) RequestRandomness(_ context.Context, hint uint64) (types.CorrelationID, error) {
	o.mu.RLock()
	consumer := o.consumer
	o.mu.RUnlock()
	if consumer == nil {
		return "", fmt.Errorf("%w: randomness consumer not bound", types.ErrInvalidArgument)
	}
	if o.ctx.Err() != nil {
		return "", ErrStopped
	}

	id := types.CorrelationID(uuid.NewString())
	o.wg.Add(1)
	go o.deliver(consumer, id, hint)
	return id, nil
}

func (o *RandomnessOracle) deliver(consumer oracle.RandomnessConsumer, id types.CorrelationID, hint uint64) {
	defer o.wg.Done()

	timer := time.NewTimer(o.delay)
	defer timer.Stop()
	select {
	case <-o.ctx.Done():
		return
	case <-timer.C:
	}

	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if o.logger != nil {
			o.logger.Errorf("生成随机字失败: id=%s, hint=%d, err=%v", id, hint, err)
		}
		return
	}
	word := new(uint256.Int).SetBytes32(buf[:])
	if err := consumer.OnRandomnessFulfilled(o.ctx, id, word); err != nil && o.logger != nil {
		o.logger.Warnf("随机数回调被拒绝: id=%s, hint=%d, err=%v", id, hint, err)
	}
}

// Stop 取消所有未投递的随机数
func (o *RandomnessOracle) Stop() {
	o.cancel()
	o.wg.Wait()
}

package clock

import (
	"sync"
	"time"

	infraClock "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
)

// DeterministicClock 基于固定基准时间和递增序列，提供确定性时间源
//
// 每次调用 Now 前进 1ms，用于回放与演示环境下得到可复现的 createdAt / programCounter。
type DeterministicClock struct {
	mu       sync.Mutex
	baseTime time.Time
	sequence int64
}

func NewDeterministicClock(base time.Time) infraClock.Clock {
	return &DeterministicClock{baseTime: base}
}

func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence++
	return c.baseTime.Add(time.Duration(c.sequence) * time.Millisecond)
}

func (c *DeterministicClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }
func (c *DeterministicClock) Unix() int64                     { return c.Now().Unix() }

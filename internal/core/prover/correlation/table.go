// Package correlation 外部关联ID到内部续接的映射表
//
// 📋 **职责**：
//   - 记录每次预言机派发返回的关联ID对应的续接（阶段、请求/批次ID、折叠轮次）
//   - 回调到达时按关联ID解析续接；未知ID由调用方记录并丢弃
//
// ⚠️ **派发屏障**：
// 预言机返回关联ID与写入表项之间存在窗口。派发方在 BeginDispatch 与释放之间完成
// “请求预言机 + Put”，Resolve 在快速路径未命中时会等待所有进行中的派发结束后再查一次。
// 因此预言机绝不能在 Request 调用内部同步回调，否则会死锁。
package correlation

import (
	"fmt"
	"sync"

	"github.com/weisyn/zkrelay/pkg/types"
)

// Table 关联表
type Table struct {
	mu      sync.Mutex
	entries map[types.CorrelationID]types.Continuation

	// dispatchMu 派发方持读锁，未命中的解析方持写锁
	dispatchMu sync.RWMutex
}

// New 创建关联表
func New() *Table {
	return &Table{entries: make(map[types.CorrelationID]types.Continuation)}
}

// BeginDispatch 开始一次派发，返回的函数必须在 Put（或放弃）之后调用
func (t *Table) BeginDispatch() (release func()) {
	t.dispatchMu.RLock()
	var once sync.Once
	return func() { once.Do(t.dispatchMu.RUnlock) }
}

// Put 写入关联ID
func (t *Table) Put(id types.CorrelationID, c types.Continuation) error {
	if id == "" {
		return fmt.Errorf("%w: empty correlation id", types.ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return fmt.Errorf("%w: duplicate correlation id %s", types.ErrInvalidArgument, id)
	}
	t.entries[id] = c
	return nil
}

// Resolve 解析关联ID
func (t *Table) Resolve(id types.CorrelationID) (types.Continuation, bool) {
	if c, ok := t.lookup(id); ok {
		return c, true
	}

	// 等待进行中的派发完成后再查一次
	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()
	return t.lookup(id)
}

// Remove 删除关联ID（已终结的续接）
func (t *Table) Remove(id types.CorrelationID) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// Len 当前待回调的关联数量
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Table) lookup(id types.CorrelationID) (types.Continuation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.entries[id]
	return c, ok
}

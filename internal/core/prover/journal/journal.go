// Package journal 把证明编排事件归档到 badger
//
// 📋 **键布局**：
//   - event/<type>/<seq>  单条事件记录（seq 为 20 位十进制，按字典序即按时间序）
//   - meta/event_seq      全局递增序号
//
// 归档通过异步事务订阅完成，不阻塞发布方；归档失败只记录日志。
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/zkrelay/pkg/types"
)

var seqKey = []byte("meta/event_seq")

// Record 一条归档事件
type Record struct {
	Seq       uint64          `json:"seq"`
	Type      types.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Journal 事件归档
type Journal struct {
	store  storage.BadgerStore
	clock  clock.Clock
	logger log.Logger

	mu       sync.Mutex
	handlers map[types.EventType]func(interface{})
}

// New 创建事件归档
func New(store storage.BadgerStore, clk clock.Clock, logger log.Logger) *Journal {
	return &Journal{
		store:    store,
		clock:    clk,
		logger:   logger,
		handlers: make(map[types.EventType]func(interface{})),
	}
}

// Attach 订阅全部证明编排事件
func (j *Journal) Attach(bus event.EventBus) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, t := range types.AllProverEventTypes() {
		if _, ok := j.handlers[t]; ok {
			continue
		}
		eventType := t
		handler := func(payload interface{}) {
			if err := j.Append(context.Background(), eventType, payload); err != nil && j.logger != nil {
				j.logger.Errorf("事件归档失败: type=%s, err=%v", eventType, err)
			}
		}
		if err := bus.SubscribeAsync(eventType, handler, true); err != nil {
			return fmt.Errorf("订阅事件 %s 失败: %w", eventType, err)
		}
		j.handlers[eventType] = handler
	}
	return nil
}

// Detach 取消全部订阅
func (j *Journal) Detach(bus event.EventBus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for t, h := range j.handlers {
		if err := bus.Unsubscribe(t, h); err != nil && j.logger != nil {
			j.logger.Warnf("取消事件订阅失败: type=%s, err=%v", t, err)
		}
		delete(j.handlers, t)
	}
}

// Append 写入一条事件记录
func (j *Journal) Append(ctx context.Context, t types.EventType, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	// 序号读-改-写需要串行
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		var seq uint64
		current, err := tx.Get(seqKey)
		if err != nil {
			return err
		}
		if current != nil {
			if seq, err = strconv.ParseUint(string(current), 10, 64); err != nil {
				return fmt.Errorf("序号损坏: %w", err)
			}
		}
		seq++

		record, err := json.Marshal(&Record{
			Seq:       seq,
			Type:      t,
			Timestamp: j.clock.Now().UTC(),
			Payload:   raw,
		})
		if err != nil {
			return err
		}
		if err := tx.Set(recordKey(t, seq), record); err != nil {
			return err
		}
		return tx.Set(seqKey, []byte(strconv.FormatUint(seq, 10)))
	})
}

// List 按序号升序列出某类事件，limit<=0 表示不限
func (j *Journal) List(ctx context.Context, t types.EventType, limit int) ([]Record, error) {
	kvs, err := j.store.PrefixScan(ctx, typePrefix(t), limit)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(kvs))
	for _, kv := range kvs {
		var r Record
		if err := json.Unmarshal(kv.Value, &r); err != nil {
			return nil, fmt.Errorf("解析事件记录 %s 失败: %w", kv.Key, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func typePrefix(t types.EventType) []byte {
	return []byte("event/" + string(t) + "/")
}

func recordKey(t types.EventType, seq uint64) []byte {
	return []byte(fmt.Sprintf("event/%s/%020d", t, seq))
}

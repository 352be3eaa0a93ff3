// 基于asaskevich/EventBus的事件总线实现
// 在底层总线之上增加启用开关与按类型的有界历史记录

package event

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
	eventconfig "github.com/weisyn/zkrelay/internal/config/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
)

// EventBus 是基于asaskevich/EventBus的实现
//
// 🎯 **特性**：
// - 保持与asaskevich/EventBus的调用方式一致（handler 为任意函数）
// - 事件系统关闭时所有操作静默成功
// - 每种事件保留最近 HistorySize 条，供 API 查询与测试断言
type EventBus struct {
	bus    evbus.Bus           // 底层事件总线
	config *eventconfig.Config // 配置

	historyMu    sync.RWMutex
	eventHistory map[event.EventType][]interface{}
}

// New 创建事件总线实例
// 所有事件总线实例必须通过此函数创建，确保配置被正确应用
func New(config *eventconfig.Config) event.EventBus {
	if config == nil {
		config = eventconfig.New(nil)
	}
	return &EventBus{
		bus:          evbus.New(),
		config:       config,
		eventHistory: make(map[event.EventType][]interface{}),
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil // 如果事件系统未启用，静默成功
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// SubscribeOnce 实现一次性订阅
func (eb *EventBus) SubscribeOnce(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.SubscribeOnce(string(eventType), handler)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	if !eb.config.IsEnabled() {
		return nil
	}
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
//
// 先记录历史再投递，保证同步订阅者在回调里查询历史时能看到当前事件。
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if !eb.config.IsEnabled() {
		return
	}
	eb.saveEventToHistory(eventType, args)
	eb.bus.Publish(string(eventType), args...)
}

// PublishEvent 发布Event接口类型事件
func (eb *EventBus) PublishEvent(e event.Event) {
	if e == nil {
		return
	}
	eb.Publish(e.Type(), e.Data())
}

// saveEventToHistory 按类型追加历史，超出容量时丢弃最旧的记录
func (eb *EventBus) saveEventToHistory(eventType event.EventType, args []interface{}) {
	limit := eb.config.GetHistorySize()
	if limit <= 0 {
		return
	}

	var record interface{}
	switch len(args) {
	case 0:
		record = nil
	case 1:
		record = args[0]
	default:
		record = append([]interface{}(nil), args...)
	}

	eb.historyMu.Lock()
	defer eb.historyMu.Unlock()

	h := append(eb.eventHistory[eventType], record)
	if len(h) > limit {
		h = append([]interface{}(nil), h[len(h)-limit:]...)
	}
	eb.eventHistory[eventType] = h
}

// GetEventHistory 获取指定类型的事件历史（按发布顺序）
func (eb *EventBus) GetEventHistory(eventType event.EventType) []interface{} {
	eb.historyMu.RLock()
	defer eb.historyMu.RUnlock()

	h := eb.eventHistory[eventType]
	if len(h) == 0 {
		return nil
	}
	return append([]interface{}(nil), h...)
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	if !eb.config.IsEnabled() {
		return
	}
	eb.bus.WaitAsync()
}

// HasCallback 检查是否有订阅者
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	if !eb.config.IsEnabled() {
		return false
	}
	return eb.bus.HasCallback(string(eventType))
}

// basicEvent Event 接口的简单实现
type basicEvent struct {
	eventType event.EventType
	data      interface{}
}

// NewEvent 构造一个 Event
func NewEvent(eventType event.EventType, data interface{}) event.Event {
	return &basicEvent{eventType: eventType, data: data}
}

func (e *basicEvent) Type() event.EventType { return e.eventType }
func (e *basicEvent) Data() interface{}     { return e.data }

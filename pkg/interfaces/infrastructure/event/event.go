// Package event 定义事件总线接口
//
// 🎯 **用途**：
// - 证明编排各组件在状态变更后发布通知（Requested、Verified、FoldingCompleted …）
// - 外部观察者（日志归档、API、测试）订阅这些通知
// - 发布与状态变更解耦，订阅者不能反向驱动状态机
package event

import "github.com/weisyn/zkrelay/pkg/types"

// EventType 兼容别名
type EventType = types.EventType

// Event 事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Data 返回事件数据
	Data() interface{}
}

// EventBus 事件总线接口
//
// handler 为任意函数，参数需与 Publish 时传入的参数类型匹配。
type EventBus interface {
	// Subscribe 同步订阅事件
	Subscribe(eventType EventType, handler interface{}) error
	// SubscribeAsync 异步订阅事件；transactional 为 true 时同一订阅者串行处理
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error
	// SubscribeOnce 一次性订阅事件
	SubscribeOnce(eventType EventType, handler interface{}) error
	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error
	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})
	// PublishEvent 发布 Event 接口类型事件
	PublishEvent(event Event)
	// WaitAsync 等待所有异步处理完成
	WaitAsync()
	// HasCallback 检查是否有订阅者
	HasCallback(eventType EventType) bool
	// GetEventHistory 获取指定事件类型的历史记录（未启用历史时返回nil）
	GetEventHistory(eventType EventType) []interface{}
}

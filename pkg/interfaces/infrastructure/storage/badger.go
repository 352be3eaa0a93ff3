// Package storage 定义持久化存储接口
package storage

import "context"

// BadgerStore 基于 BadgerDB 的键值存储接口
//
// 🎯 **使用场景**：
// - 事件归档（journal）按 event/<type>/<seq> 键写入通知
// - 只读前缀扫描用于 API 查询
type BadgerStore interface {
	// Close 关闭存储
	Close() error

	// Get 获取键对应的值，不存在时返回 (nil, nil)
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 写入键值
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除键
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描，返回键的字典序排列结果
	PrefixScan(ctx context.Context, prefix []byte, limit int) ([]KV, error)

	// RunInTransaction 在单个读写事务中执行 fn
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error
}

// BadgerTransaction 事务内可用的操作
type BadgerTransaction interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Exists(key []byte) (bool, error)
}

// KV 扫描结果条目
type KV struct {
	Key   []byte
	Value []byte
}

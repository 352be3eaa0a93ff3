// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"errors"
	"fmt"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/storage"
)

// 确保 Transaction 实现了 interfaces.BadgerTransaction 接口
var _ storage.BadgerTransaction = (*Transaction)(nil)

// errTxClosed 事务已提交或丢弃
var errTxClosed = errors.New("事务已关闭")

// Transaction 实现BadgerTransaction接口
type Transaction struct {
	txn    *badgerdb.Txn
	closed atomic.Bool
}

// Get 获取指定键的值
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, errTxClosed
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, nil // 键不存在时返回nil值和nil错误
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("复制键值失败: %w", err)
	}
	return val, nil
}

// Set 设置键值对
func (t *Transaction) Set(key, value []byte) error {
	if t.closed.Load() {
		return errTxClosed
	}
	if err := t.txn.Set(key, value); err != nil {
		return fmt.Errorf("设置键值失败: %w", err)
	}
	return nil
}

// Delete 删除指定键
func (t *Transaction) Delete(key []byte) error {
	if t.closed.Load() {
		return errTxClosed
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("删除键失败: %w", err)
	}
	return nil
}

// Exists 检查键是否存在
func (t *Transaction) Exists(key []byte) (bool, error) {
	if t.closed.Load() {
		return false, errTxClosed
	}
	_, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if !t.closed.CompareAndSwap(false, true) {
		return errTxClosed
	}
	return t.txn.Commit()
}

// Discard 丢弃事务（已提交时为空操作）
func (t *Transaction) Discard() {
	if t.closed.CompareAndSwap(false, true) {
		t.txn.Discard()
	}
}

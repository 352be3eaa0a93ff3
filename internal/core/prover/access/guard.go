// Package access 管理员能力校验
//
// 所有管理操作（允许列表、费用注资、批次边界、递归深度、定时间隔）都先经过 Guard。
// 所有者为零地址时任何调用者都无权限。
package access

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkrelay/pkg/types"
)

// Guard 所有者能力
type Guard struct {
	mu    sync.RWMutex
	owner common.Address
}

// NewGuard 创建能力校验器
func NewGuard(owner common.Address) *Guard {
	return &Guard{owner: owner}
}

// Require 校验 caller 是否为所有者
func (g *Guard) Require(caller common.Address, op string) error {
	g.mu.RLock()
	owner := g.owner
	g.mu.RUnlock()

	if owner == (common.Address{}) || caller != owner {
		return types.WrapUnauthorized(op)
	}
	return nil
}

// Owner 当前所有者
func (g *Guard) Owner() common.Address {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.owner
}

// TransferOwnership 转移所有权
func (g *Guard) TransferOwnership(caller, newOwner common.Address) error {
	if err := g.Require(caller, "transfer_ownership"); err != nil {
		return err
	}
	g.mu.Lock()
	g.owner = newOwner
	g.mu.Unlock()
	return nil
}

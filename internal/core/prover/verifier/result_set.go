package verifier

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ResultSet 已验证结果根集合，只增不减
type ResultSet struct {
	mu    sync.RWMutex
	roots map[common.Hash]struct{}
}

// NewResultSet 创建空集合
func NewResultSet() *ResultSet {
	return &ResultSet{roots: make(map[common.Hash]struct{})}
}

// Add 加入结果根
func (s *ResultSet) Add(root common.Hash) {
	s.mu.Lock()
	s.roots[root] = struct{}{}
	s.mu.Unlock()
}

// Contains 是否已验证
func (s *ResultSet) Contains(root common.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roots[root]
	return ok
}

// Len 集合大小
func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roots)
}

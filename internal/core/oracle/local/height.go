package local

import (
	"context"
	"sync/atomic"

	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
)

// StaticHeight 固定高度源，可在运行中调整
type StaticHeight struct {
	height atomic.Uint64
}

var _ oracle.HeightSource = (*StaticHeight)(nil)

// NewStaticHeight 创建高度源
func NewStaticHeight(height uint64) *StaticHeight {
	h := &StaticHeight{}
	h.height.Store(height)
	return h
}

// CurrentHeight 实现 oracle.HeightSource
func (h *StaticHeight) CurrentHeight(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return h.height.Load(), nil
}

// SetHeight 调整高度
func (h *StaticHeight) SetHeight(height uint64) {
	h.height.Store(height)
}

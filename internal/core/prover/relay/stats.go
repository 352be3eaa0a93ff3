package relay

import (
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

var _ metrics.MemoryReporter = (*Engine)(nil)

// ModuleName 实现 metrics.MemoryReporter
func (e *Engine) ModuleName() string { return "prover.relay" }

// CollectMemoryStats 实现 metrics.MemoryReporter
func (e *Engine) CollectMemoryStats() metrics.ModuleMemoryStats {
	e.mu.Lock()
	received := len(e.received)
	e.mu.Unlock()

	return metrics.ModuleMemoryStats{
		Module:     e.ModuleName(),
		Objects:    int64(received),
		CacheItems: int64(e.crossVerified.Len()),
	}
}

package folding

import (
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

var _ metrics.MemoryReporter = (*Engine)(nil)

// ModuleName 实现 metrics.MemoryReporter
func (e *Engine) ModuleName() string { return "prover.folding" }

// CollectMemoryStats 实现 metrics.MemoryReporter
func (e *Engine) CollectMemoryStats() metrics.ModuleMemoryStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var inflight int64
	for _, b := range e.batches {
		if !b.Completed && !b.RoundFailed {
			inflight++
		}
	}
	return metrics.ModuleMemoryStats{
		Module:      e.ModuleName(),
		Objects:     int64(len(e.batches)),
		CacheItems:  int64(len(e.proofBatch) + len(e.nullifiers)),
		QueueLength: inflight,
	}
}

package registry

import (
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

var _ metrics.MemoryReporter = (*Registry)(nil)

// ModuleName 实现 metrics.MemoryReporter
func (r *Registry) ModuleName() string { return "prover.registry" }

// CollectMemoryStats 实现 metrics.MemoryReporter
func (r *Registry) CollectMemoryStats() metrics.ModuleMemoryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending int64
	for _, req := range r.requests {
		if !req.Completed {
			pending++
		}
	}
	return metrics.ModuleMemoryStats{
		Module:      r.ModuleName(),
		Objects:     int64(len(r.requests)),
		QueueLength: pending,
	}
}

// Package metrics 指标基础设施
//
// 📋 **组成**：
//   - NewRegistry: 应用级 Prometheus 注册表（含 Go 运行时与进程指标）
//   - StatsCollector: 把各模块 MemoryReporter 的自报状态暴露为 Gauge
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	metricsiface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
)

// NewRegistry 创建应用级注册表
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// StatsCollector 模块状态收集器，实现 prometheus.Collector
type StatsCollector struct {
	mu        sync.RWMutex
	reporters []metricsiface.MemoryReporter

	objects     *prometheus.Desc
	cacheItems  *prometheus.Desc
	queueLength *prometheus.Desc
}

// NewStatsCollector 创建收集器
func NewStatsCollector() *StatsCollector {
	labels := []string{"module"}
	return &StatsCollector{
		objects: prometheus.NewDesc("zkrelay_module_objects",
			"Objects held by a module, as self-reported.", labels, nil),
		cacheItems: prometheus.NewDesc("zkrelay_module_cache_items",
			"Auxiliary index entries held by a module, as self-reported.", labels, nil),
		queueLength: prometheus.NewDesc("zkrelay_module_queue_length",
			"Entries waiting for an oracle callback, as self-reported.", labels, nil),
	}
}

// Register 注册一个上报器，nil 被忽略
func (c *StatsCollector) Register(r metricsiface.MemoryReporter) {
	if r == nil {
		return
	}
	c.mu.Lock()
	c.reporters = append(c.reporters, r)
	c.mu.Unlock()
}

// CollectAll 收集全部模块状态；单个上报器 panic 时跳过该模块
func (c *StatsCollector) CollectAll() []metricsiface.ModuleMemoryStats {
	c.mu.RLock()
	reporters := append([]metricsiface.MemoryReporter(nil), c.reporters...)
	c.mu.RUnlock()

	stats := make([]metricsiface.ModuleMemoryStats, 0, len(reporters))
	for _, r := range reporters {
		func() {
			defer func() { _ = recover() }()
			s := r.CollectMemoryStats()
			if s.Module == "" {
				s.Module = r.ModuleName()
			}
			stats = append(stats, s)
		}()
	}
	return stats
}

// Describe 实现 prometheus.Collector
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objects
	ch <- c.cacheItems
	ch <- c.queueLength
}

// Collect 实现 prometheus.Collector
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.CollectAll() {
		ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(s.Objects), s.Module)
		ch <- prometheus.MustNewConstMetric(c.cacheItems, prometheus.GaugeValue, float64(s.CacheItems), s.Module)
		ch <- prometheus.MustNewConstMetric(c.queueLength, prometheus.GaugeValue, float64(s.QueueLength), s.Module)
	}
}

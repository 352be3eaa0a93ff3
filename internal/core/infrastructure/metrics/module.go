package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleOutput 指标模块输出
type ModuleOutput struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Stats      *StatsCollector
}

// Module 返回 metrics 模块的 fx.Option
//
// 提供：
//   - *prometheus.Registry 及其 Registerer/Gatherer 视图
//   - StatsCollector（已注册到 Registry，各模块向其注册 MemoryReporter）
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建注册表与模块状态收集器
func ProvideServices() (ModuleOutput, error) {
	reg := NewRegistry()
	stats := NewStatsCollector()
	if err := reg.Register(stats); err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		Registry:   reg,
		Registerer: reg,
		Gatherer:   reg,
		Stats:      stats,
	}, nil
}

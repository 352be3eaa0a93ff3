// Package metrics 定义模块自报状态的接口
//
// 📋 **模块状态上报**：
// 各核心模块（注册表、折叠引擎、中继）实现 MemoryReporter，自行报告持有的对象数量
// 与等待回调的队列长度；基础设施层的收集器把这些数字暴露为 Prometheus 指标。
package metrics

// ModuleMemoryStats 模块"自己认账"的逻辑状态
//
// 不追求绝对精确，关键是能反映趋势和相对大小。
type ModuleMemoryStats struct {
	Module      string `json:"module"`       // 模块名称：prover.registry / prover.folding / prover.relay
	Objects     int64  `json:"objects"`      // 主要对象数：请求数 / 批次数 / 已接收消息数
	CacheItems  int64  `json:"cache_items"`  // 辅助索引条目（已验证结果根、nullifier 等）
	QueueLength int64  `json:"queue_length"` // 等待回调的条目数
}

// MemoryReporter 模块状态上报接口
type MemoryReporter interface {
	// ModuleName 返回模块名称
	ModuleName() string

	// CollectMemoryStats 收集当前模块的状态统计
	CollectMemoryStats() ModuleMemoryStats
}

// Package prover provides configuration for proof request orchestration.
package prover

// 证明编排默认配置值
const (
	// defaultComputeSource 证明请求派发给计算预言机的任务脚本
	defaultComputeSource = "prove-state-v1"

	// defaultFoldSource 递归折叠轮次派发的任务脚本
	defaultFoldSource = "nova-fold-v1"

	// defaultSubscriptionID 计算预言机订阅
	defaultSubscriptionID = 1

	// defaultGasLimit 回调 gas 上限
	defaultGasLimit = 300_000

	// defaultSelectionWindow 随机目标高度落在最近 1000 个高度内
	defaultSelectionWindow = 1000

	// === 批次约束 ===
	defaultMinProofsPerBatch = 2
	defaultMaxProofsPerBatch = 10
	defaultMaxRecursionDepth = 5
)

// Package oracle provides configuration for the in-process oracle suite.
package oracle

import "time"

// 本地预言机默认配置值
const (
	// defaultWorkers 计算预言机工作协程数
	defaultWorkers = 4

	// defaultDeliveryDelay 回调投递延迟，模拟链下计算耗时
	defaultDeliveryDelay = 50 * time.Millisecond

	// defaultChainHeight 本地高度源返回的高度
	defaultChainHeight = 2000

	// defaultFeePerByte 环回路由器按负载字节计费
	defaultFeePerByte = 1

	// defaultLocalSelector 本域在环回路由器中的选择器
	defaultLocalSelector = 1

	// defaultDevProver 使用本地 Groth16 证明器生成证明
	defaultDevProver = true

	// defaultQueueSize 计算任务队列容量
	defaultQueueSize = 256
)

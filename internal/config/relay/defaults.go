// Package relay provides configuration for cross-domain relaying.
package relay

// 中继默认配置值
const (
	// defaultInitialFeeBalance 启动时持有的费用代币余额（十进制），0 表示需要先 FundFees
	defaultInitialFeeBalance = "0"
)

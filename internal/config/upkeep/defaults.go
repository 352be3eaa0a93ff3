// Package upkeep provides configuration for the periodic request driver.
package upkeep

import "time"

// 定时任务默认配置值
const (
	// defaultEnabled 默认不自动发起请求
	defaultEnabled = false

	// defaultInterval 两次自动请求的最小间隔
	defaultInterval = time.Hour

	// defaultPollInterval 检查是否到期的周期
	defaultPollInterval = time.Minute

	// defaultDomain 自动请求的源域
	defaultDomain = "ethereum"
)

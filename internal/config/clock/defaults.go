// Package clock provides default configuration values for clock service.
package clock

import "time"

// 时钟服务配置默认值
const (
	// defaultType 默认使用系统时钟
	defaultType = "system"

	// defaultDeterministicBaseUnix 确定性时钟的基准时间（0 表示 Unix 纪元）
	defaultDeterministicBaseUnix = 0

	// defaultNTPServer ntp 时钟的查询服务器
	defaultNTPServer = "pool.ntp.org"

	// defaultNTPSyncInterval 两次校时之间的间隔
	defaultNTPSyncInterval = 10 * time.Minute
)

package api

import "time"

// API服务默认配置值
const (
	// defaultHTTPEnabled 默认启用HTTP API
	defaultHTTPEnabled = true

	// defaultListenAddr 默认只监听本机
	defaultListenAddr = "127.0.0.1:8680"

	// defaultEnableMetrics 默认暴露 /metrics
	defaultEnableMetrics = true

	// defaultEnableDebug 诊断端点默认关闭
	defaultEnableDebug = false

	// defaultReadTimeout HTTP读取超时
	defaultReadTimeout = 15 * time.Second

	// defaultWriteTimeout HTTP写入超时
	defaultWriteTimeout = 15 * time.Second

	// defaultShutdownTimeout 优雅关闭等待时间
	defaultShutdownTimeout = 5 * time.Second

	// defaultMaxRequestSize 最大请求体 1MB
	defaultMaxRequestSize = 1 << 20
)

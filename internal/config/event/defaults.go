package event

// 事件配置默认值
const (
	// defaultEnabled 默认启用事件系统
	defaultEnabled = true

	// defaultHistorySize 每种事件保留最近 256 条，供 API 与测试查询
	defaultHistorySize = 256
)

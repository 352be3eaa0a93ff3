package event

import "github.com/weisyn/zkrelay/pkg/types"

// EventOptions 事件系统配置选项
type EventOptions struct {
	Enabled     bool `json:"enabled"`      // 是否启用事件系统
	HistorySize int  `json:"history_size"` // 每种事件保留的历史条数
}

// Config 事件配置实现
type Config struct {
	options *EventOptions
}

// New 创建事件配置实现
func New(userConfig *types.UserEventConfig) *Config {
	options := &EventOptions{
		Enabled:     defaultEnabled,
		HistorySize: defaultHistorySize,
	}
	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.HistorySize != nil && *userConfig.HistorySize >= 0 {
			options.HistorySize = *userConfig.HistorySize
		}
	}
	return &Config{options: options}
}

// NewFromOptions 直接使用已解析的选项
func NewFromOptions(options *EventOptions) *Config {
	if options == nil {
		return New(nil)
	}
	return &Config{options: options}
}

// GetOptions 获取事件配置选项
func (c *Config) GetOptions() *EventOptions {
	return c.options
}

// IsEnabled 是否启用事件系统
func (c *Config) IsEnabled() bool {
	return c.options.Enabled
}

// GetHistorySize 获取历史条数
func (c *Config) GetHistorySize() int {
	return c.options.HistorySize
}

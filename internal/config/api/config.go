package api

import (
	"time"

	"github.com/weisyn/zkrelay/pkg/types"
)

// APIOptions API服务配置选项
type APIOptions struct {
	Enabled         bool          `json:"enabled"`          // 是否启用HTTP API
	ListenAddr      string        `json:"listen_addr"`      // 监听地址
	EnableMetrics   bool          `json:"enable_metrics"`   // 是否暴露 /metrics
	EnableDebug     bool          `json:"enable_debug"`     // 是否暴露 /debug/memory 诊断端点
	ReadTimeout     time.Duration `json:"read_timeout"`     // 读取超时
	WriteTimeout    time.Duration `json:"write_timeout"`    // 写入超时
	ShutdownTimeout time.Duration `json:"shutdown_timeout"` // 关闭超时
	MaxRequestSize  int64         `json:"max_request_size"` // 最大请求体
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置实现
func New(userConfig *types.UserAPIConfig) *Config {
	options := &APIOptions{
		Enabled:         defaultHTTPEnabled,
		ListenAddr:      defaultListenAddr,
		EnableMetrics:   defaultEnableMetrics,
		EnableDebug:     defaultEnableDebug,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
		MaxRequestSize:  defaultMaxRequestSize,
	}

	if userConfig != nil {
		if userConfig.Enabled != nil {
			options.Enabled = *userConfig.Enabled
		}
		if userConfig.ListenAddr != nil && *userConfig.ListenAddr != "" {
			options.ListenAddr = *userConfig.ListenAddr
		}
		if userConfig.EnableMetrics != nil {
			options.EnableMetrics = *userConfig.EnableMetrics
		}
		if userConfig.EnableDebug != nil {
			options.EnableDebug = *userConfig.EnableDebug
		}
	}

	return &Config{options: options}
}

// GetOptions 获取API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}

// IsEnabled 是否启用HTTP API
func (c *Config) IsEnabled() bool {
	return c.options.Enabled
}

// GetListenAddr 获取监听地址
func (c *Config) GetListenAddr() string {
	return c.options.ListenAddr
}

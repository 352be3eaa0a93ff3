package oracle

import (
	"time"

	"github.com/weisyn/zkrelay/pkg/types"
)

// OracleOptions 本地预言机配置选项
type OracleOptions struct {
	Workers       int           `json:"workers"`
	QueueSize     int           `json:"queue_size"`
	DeliveryDelay time.Duration `json:"delivery_delay"`
	ChainHeight   uint64        `json:"chain_height"`
	FeePerByte    uint64        `json:"fee_per_byte"`
	LocalSelector uint64        `json:"local_selector"`
	DevProver     bool          `json:"dev_prover"`
}

// Config 本地预言机配置实现
type Config struct {
	options *OracleOptions
}

// New 创建本地预言机配置
func New(userConfig *types.UserOracleConfig) *Config {
	options := &OracleOptions{
		Workers:       defaultWorkers,
		QueueSize:     defaultQueueSize,
		DeliveryDelay: defaultDeliveryDelay,
		ChainHeight:   defaultChainHeight,
		FeePerByte:    defaultFeePerByte,
		LocalSelector: defaultLocalSelector,
		DevProver:     defaultDevProver,
	}

	if userConfig == nil {
		return &Config{options: options}
	}

	if userConfig.Workers != nil && *userConfig.Workers > 0 {
		options.Workers = *userConfig.Workers
	}
	if userConfig.DeliveryDelay != nil {
		if d, err := time.ParseDuration(*userConfig.DeliveryDelay); err == nil && d >= 0 {
			options.DeliveryDelay = d
		}
	}
	if userConfig.ChainHeight != nil {
		options.ChainHeight = *userConfig.ChainHeight
	}
	if userConfig.FeePerByte != nil {
		options.FeePerByte = *userConfig.FeePerByte
	}
	if userConfig.LocalSelector != nil {
		options.LocalSelector = *userConfig.LocalSelector
	}
	if userConfig.DevProver != nil {
		options.DevProver = *userConfig.DevProver
	}

	return &Config{options: options}
}

// GetOptions 获取本地预言机配置选项
func (c *Config) GetOptions() *OracleOptions {
	return c.options
}
